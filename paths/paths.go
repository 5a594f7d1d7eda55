// Package paths maps tenant and entity attributes to storage locations.
//
// A path is built from both the immutable identifiers and the current display
// names, so renaming an entity yields a different path for the same id.
// Nothing here touches the filesystem.
package paths

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	KindEmployee = "employees"
	KindProject  = "projects"

	separator = "_"
	unnamed   = "unnamed"
)

// ValidKind reports whether kind owns a document directory.
func ValidKind(kind string) bool {
	return kind == KindEmployee || kind == KindProject
}

/*
* Trim the name
* Collapse every whitespace run into a single underscore
* Strip characters that would escape or split a path segment
 */
func Normalize(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r):
			pendingSep = true
			continue
		case r == '/' || r == '\\' || r == 0:
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteString(separator)
		}
		pendingSep = false
		b.WriteRune(r)
	}
	out := strings.ReplaceAll(b.String(), "..", separator)
	if out == "" || out == "." {
		return unnamed
	}
	return out
}

// TenantDir is the root of every blob owned by a tenant.
func TenantDir(tenantID, tenantName string) string {
	return Normalize(tenantName) + separator + tenantID
}

// TenantSuffix is the trailing marker shared by every directory name a tenant
// has had, whatever its name was at the time.
func TenantSuffix(tenantID string) string {
	return separator + tenantID
}

// Derive returns the canonical directory of one entity.
func Derive(tenantID, tenantName, kind, entityID, entityName string) string {
	return path.Join(TenantDir(tenantID, tenantName), kind, Normalize(entityName)+separator+entityID)
}

// LegacyDir is the name-only layout written before ids were part of paths.
func LegacyDir(tenantName, kind, entityName string) string {
	return path.Join(Normalize(tenantName), kind, Normalize(entityName))
}

// StagingPath places an incoming file in the tenant-agnostic holding area.
func StagingPath(stagingDir, fileName string) string {
	return path.Join(stagingDir, uuid.NewString()+separator+Normalize(fileName))
}

// Rebase swaps the oldDir prefix of p for newDir. ok is false when p is not
// under oldDir.
func Rebase(p, oldDir, newDir string) (string, bool) {
	if p == oldDir {
		return newDir, true
	}
	prefix := oldDir + "/"
	if !strings.HasPrefix(p, prefix) {
		return p, false
	}
	return newDir + "/" + strings.TrimPrefix(p, prefix), true
}
