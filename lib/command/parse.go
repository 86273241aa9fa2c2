package command

import (
	"fmt"
	"strings"
)

// Parse parses one command line as typed into the shell, e.g.
// "open sales 2024/q1". Keywords are case-insensitive.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	keyword, args := strings.ToLower(fields[0]), fields[1:]

	switch keyword {
	case "open":
		if len(args) < 1 || len(args) > 2 {
			return nil, usage("open <name> [<path>]")
		}
		c := &Open{DB: args[0]}
		if len(args) == 2 {
			c.Path = args[1]
		}
		return c, nil
	case "close":
		if len(args) != 0 {
			return nil, usage("close")
		}
		return &Close{}, nil
	case "create":
		if len(args) < 1 {
			return nil, usage("create <name> [<resource>...]")
		}
		return &Create{DB: args[0], Resources: args[1:]}, nil
	case "drop":
		if len(args) != 1 {
			return nil, usage("drop <name>")
		}
		return &Drop{DB: args[0]}, nil
	case "info":
		if len(args) > 1 {
			return nil, usage("info [text|json|yaml]")
		}
		c := &Info{}
		if len(args) == 1 {
			c.Format = strings.ToLower(args[0])
		}
		return c, nil
	case "list":
		return &List{}, nil
	case "stats":
		return &Stats{}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", fields[0])
	}
}

func usage(syntax string) error {
	return fmt.Errorf("usage: %s", syntax)
}
