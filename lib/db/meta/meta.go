package meta

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/cespare/xxhash/v2"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum       = "KVBASEDB" // File format identifier
	VersionLegacy  = 1          // First format, no checksum
	VersionCurrent = 2          // Current format
	endMarker      = 0xFF       // Terminates a v1 header

	flagCorrupt = 1 << 0
)

// --------------------------------------------------------------------------
// Reading
// --------------------------------------------------------------------------

// Read parses the header of the database name from r.
// r is left positioned directly after the header, so the resource table can be
// read with ReadResources afterward. Read never buffers beyond the header.
func Read(r io.Reader, name string) (db.Metadata, error) {
	m := db.Metadata{Name: name}

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(r, magicBytes); err != nil {
		return m, ioFailure(name, err)
	}
	if string(magicBytes) != magicNum {
		return m, ioFailure(name, fmt.Errorf("invalid file format: magic number mismatch"))
	}

	// Read version
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return m, ioFailure(name, err)
	}
	m.Version = version

	var (
		stored string
		err    error
	)
	switch version {
	case VersionLegacy:
		stored, err = readV1(r, &m)
		m.Legacy = true
	case VersionCurrent:
		stored, err = readV2(r, &m, magicBytes)
	default:
		return m, ioFailure(name, fmt.Errorf("unsupported version: %d (expected at most %d)", version, VersionCurrent))
	}
	if err != nil {
		return m, ioFailure(name, err)
	}

	// The header belongs to another database (e.g. a copied directory)
	if stored != name {
		m.Corrupt = true
	}
	return m, nil
}

// readV1 reads the remainder of a legacy header. Fields that did not exist in
// v1 are derived from the ones that did.
func readV1(r io.Reader, m *db.Metadata) (string, error) {
	var nameLen uint8
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return "", err
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return "", err
	}

	var modified int64
	if err := binary.Read(r, binary.LittleEndian, &modified); err != nil {
		return "", err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.Resources); err != nil {
		return "", err
	}

	// structural self-test
	var end uint8
	if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
		return "", err
	}
	if end != endMarker {
		m.Corrupt = true
	}

	m.Modified = time.Unix(0, modified).UTC()
	m.Created = m.Modified
	return string(nameBytes), nil
}

// readV2 reads the remainder of a current header and verifies its checksum.
func readV2(r io.Reader, m *db.Metadata, magicBytes []byte) (string, error) {
	// everything read here is also fed into the checksum
	digest := xxhash.New()
	_, _ = digest.Write(magicBytes)
	_, _ = digest.Write([]byte{VersionCurrent})
	tr := io.TeeReader(r, digest)

	var flags uint8
	if err := binary.Read(tr, binary.LittleEndian, &flags); err != nil {
		return "", err
	}

	var nameLen uint16
	if err := binary.Read(tr, binary.LittleEndian, &nameLen); err != nil {
		return "", err
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(tr, nameBytes); err != nil {
		return "", err
	}

	var created, modified int64
	if err := binary.Read(tr, binary.LittleEndian, &created); err != nil {
		return "", err
	}
	if err := binary.Read(tr, binary.LittleEndian, &modified); err != nil {
		return "", err
	}
	if err := binary.Read(tr, binary.LittleEndian, &m.Size); err != nil {
		return "", err
	}
	if err := binary.Read(tr, binary.LittleEndian, &m.Resources); err != nil {
		return "", err
	}

	sum := digest.Sum64()
	var stored uint64
	if err := binary.Read(r, binary.LittleEndian, &stored); err != nil {
		return "", err
	}

	m.Created = time.Unix(0, created).UTC()
	m.Modified = time.Unix(0, modified).UTC()
	m.Corrupt = stored != sum || flags&flagCorrupt != 0
	return string(nameBytes), nil
}

// ReadResources reads the resource table that follows the header.
func ReadResources(r io.Reader) (*db.Resources, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	paths := make([]string, 0, min(count, 1024))
	for i := uint32(0); i < count; i++ {
		var pathLen uint16
		if err := binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
			return nil, err
		}
		pathBytes := make([]byte, pathLen)
		if _, err := io.ReadFull(r, pathBytes); err != nil {
			return nil, err
		}
		paths = append(paths, string(pathBytes))
	}
	return db.NewResources(paths), nil
}

func ioFailure(name string, err error) error {
	return &db.Error{
		Code: db.ErrCIOFailure,
		Msg:  fmt.Sprintf("database '%s' could not be read: %s", name, err),
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Writing
// --------------------------------------------------------------------------

// Write writes m in the current format followed by the resource table.
// m.Resources is overwritten with the length of the table.
func Write(w io.Writer, m db.Metadata, resources *db.Resources) error {
	if resources == nil {
		resources = db.NewResources(nil)
	}
	if len(m.Name) > 0xFFFF {
		return fmt.Errorf("name too long: %d bytes", len(m.Name))
	}

	// Header is assembled in memory so the checksum can be appended
	var header bytes.Buffer
	header.WriteString(magicNum)
	header.WriteByte(VersionCurrent)

	var flags uint8
	if m.Corrupt {
		flags |= flagCorrupt
	}
	header.WriteByte(flags)

	_ = binary.Write(&header, binary.LittleEndian, uint16(len(m.Name)))
	header.WriteString(m.Name)
	_ = binary.Write(&header, binary.LittleEndian, m.Created.UnixNano())
	_ = binary.Write(&header, binary.LittleEndian, m.Modified.UnixNano())
	_ = binary.Write(&header, binary.LittleEndian, m.Size)
	_ = binary.Write(&header, binary.LittleEndian, uint32(resources.Len()))
	_ = binary.Write(&header, binary.LittleEndian, xxhash.Sum64(header.Bytes()))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header.Bytes()); err != nil {
		return err
	}
	if err := writeResources(bw, resources); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteLegacy writes m in the v1 format followed by the resource table.
// It exists to produce fixtures of databases created by older releases.
func WriteLegacy(w io.Writer, m db.Metadata, resources *db.Resources) error {
	if resources == nil {
		resources = db.NewResources(nil)
	}
	if len(m.Name) > 0xFF {
		return fmt.Errorf("name too long for legacy format: %d bytes", len(m.Name))
	}

	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString(magicNum)
	_ = bw.WriteByte(VersionLegacy)
	_ = bw.WriteByte(uint8(len(m.Name)))
	_, _ = bw.WriteString(m.Name)
	_ = binary.Write(bw, binary.LittleEndian, m.Modified.UnixNano())
	_ = binary.Write(bw, binary.LittleEndian, uint32(resources.Len()))
	_ = bw.WriteByte(endMarker)

	if err := writeResources(bw, resources); err != nil {
		return err
	}
	return bw.Flush()
}

func writeResources(w io.Writer, resources *db.Resources) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(resources.Len())); err != nil {
		return err
	}
	for _, p := range resources.Paths() {
		if len(p) > 0xFFFF {
			return fmt.Errorf("resource path too long: %d bytes", len(p))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(p))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}
