package vectorstore

import (
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"
)

// PointID derives the deterministic identifier for a stored vector from the
// logical unit it represents. The MD5 digest bytes are reinterpreted as a
// UUID rather than hashed again, so re-embedding the same chunk always
// overwrites the same point.
func PointID(filename string, page, index int, kind string) uuid.UUID {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d_%d_%s", filename, page, index, kind)))
	id, _ := uuid.FromBytes(sum[:])
	return id
}
