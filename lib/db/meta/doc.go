// Package meta reads and writes the header file (inf.kvb) of a kvbase
// database.
//
// File Layout:
//
//	A header file starts with the header itself, followed by the resource
//	table. All integers are little endian.
//
//	Header v2 (current):
//	  magic     [8]byte  "KVBASEDB"
//	  version   uint8    2
//	  flags     uint8    bit 0: persisted corrupt flag
//	  name      uint16 length + bytes
//	  created   int64    unix nanoseconds
//	  modified  int64    unix nanoseconds
//	  size      uint64   size of the database in bytes
//	  resources uint32   number of resources
//	  checksum  uint64   xxhash64 of all preceding header bytes
//
//	Header v1 (legacy):
//	  magic     [8]byte  "KVBASEDB"
//	  version   uint8    1
//	  name      uint8 length + bytes
//	  modified  int64    unix nanoseconds
//	  resources uint32   number of resources
//	  end       uint8    0xFF
//
//	Resource table (both versions):
//	  count     uint32
//	  path      uint16 length + bytes (count times)
//
// Error Policy:
//
//	Read distinguishes between damaged and unreadable headers. A checksum
//	mismatch, a wrong end marker, a persisted corrupt flag or a name that
//	differs from the requested one only set Metadata.Corrupt. An old version
//	only sets Metadata.Legacy. A wrong magic number, an unknown version or a
//	truncated stream cannot be parsed and is returned as an IOFailure.
package meta
