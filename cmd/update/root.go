package update

import (
	"encoding/hex"
	"fmt"

	"github.com/ValentinKolb/kvbase/cmd/util"
	"github.com/ValentinKolb/kvbase/lib/lockmgr"
	"github.com/spf13/cobra"
)

var (
	// UpdateCommands represents the update command group
	UpdateCommands = &cobra.Command{
		Use:   "update",
		Short: "Mark databases as being updated",
		Long: util.WrapString("While a database is marked as being updated it cannot be opened. " +
			"The marker survives crashes, so an update that was not completed keeps the database closed until it is ended."),
	}

	beginCmd = &cobra.Command{
		Use:   "begin [name]",
		Short: "Begin an update",
		Args:  cobra.ExactArgs(1),
		RunE:  runBegin,
	}

	endCmd = &cobra.Command{
		Use:   "end [name] [ownerID]",
		Short: "End an update",
		Long:  "End an update using the name and owner ID. The owner ID is the hex string returned by the begin command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runEnd,
	}
)

func init() {
	UpdateCommands.AddCommand(beginCmd)
	UpdateCommands.AddCommand(endCmd)
}

func lockManager() (lockmgr.ILockManager, error) {
	ctx, err := util.Context()
	if err != nil {
		return nil, err
	}
	return ctx.LockManager(), nil
}

// runBegin handles the begin command
func runBegin(_ *cobra.Command, args []string) error {
	lm, err := lockManager()
	if err != nil {
		return err
	}

	acquired, ownerID, err := lm.AcquireLock(args[0])
	if err != nil {
		return err
	}
	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	// Convert owner ID to hex string for display
	fmt.Printf("acquired=true, ownerId=%s\n", hex.EncodeToString(ownerID))
	return nil
}

// runEnd handles the end command
func runEnd(_ *cobra.Command, args []string) error {
	lm, err := lockManager()
	if err != nil {
		return err
	}

	// Convert hex string owner ID back to bytes
	ownerID, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("invalid owner ID format: %v", err)
	}

	released, err := lm.ReleaseLock(args[0], ownerID)
	if err != nil {
		return err
	}
	fmt.Printf("released=%v\n", released)
	return nil
}
