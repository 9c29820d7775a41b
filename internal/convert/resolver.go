// BYZRA ⸻ internal/convert/resolver.go
// moves an occupant of a destination path aside before it gets written

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"

	"morphra/internal/util"
)

// suffix kinds for displaced files
type BackupKind string

const (
	// destination displaced by a transcode
	BackupOld BackupKind = "old"

	// destination displaced by an extension-only rename
	BackupExisting BackupKind = "existing"
)

type Resolver struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger, now: time.Now}
}

// yyyyMMddHHmmssfff
func backupStamp(t time.Time) string {
	return fmt.Sprintf("%s%03d", t.Format("20060102150405"), t.Nanosecond()/int(time.Millisecond))
}

// backup name for desired, if something occupies it
func (r *Resolver) Resolve(desired string, kind BackupKind) (string, bool) {
	if !util.Exists(desired) {
		return "", false
	}

	dir, base, ext := util.SplitName(desired)
	stamp := r.now()
	for {
		name := fmt.Sprintf("%s_%s_%s", base, kind, backupStamp(stamp))
		if ext != "" {
			name += "." + ext
		}
		backup := filepath.Join(dir, name)
		if !util.Exists(backup) {
			return backup, true
		}
		// same millisecond twice, take the next one
		stamp = stamp.Add(time.Millisecond)
	}
}

// moves the occupant of desired to its backup name, returns "" when free
func (r *Resolver) Displace(desired string, kind BackupKind) (string, error) {
	backup, needed := r.Resolve(desired, kind)
	if !needed {
		return "", nil
	}

	if err := os.Rename(desired, backup); err != nil {
		return "", fmt.Errorf("%w: failed to move %s aside: %v", ErrIO, filepath.Base(desired), err)
	}

	r.logger.Info("Destination already existed, moved aside",
		zap.String("file", filepath.Base(desired)),
		zap.String("backup", filepath.Base(backup)))

	return backup, nil
}

// moves staged into final; an occupant other than src is displaced first
func (r *Resolver) Commit(staged, final, src string) error {
	if final != src {
		if _, err := r.Displace(final, BackupOld); err != nil {
			return err
		}
	}

	if err := os.Rename(staged, final); err != nil {
		return fmt.Errorf("%w: failed to move output into place: %v", ErrIO, err)
	}
	return nil
}

var backupPattern = regexp.MustCompile(`_(old|existing)_\d{17}(\.[^.]*)?$`)

// whether name looks like something Displace produced
func IsBackupName(name string) bool {
	return backupPattern.MatchString(filepath.Base(name))
}
