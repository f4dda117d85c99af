package changes

import (
	"strconv"
	"strings"
)

const (
	porcelainStatusWidthConstant    = 2
	porcelainPathOffsetConstant     = 3
	renameOrCopyStatusCodesConstant = "RC"
	renameSeparatorConstant         = " -> "
	quoteCharacterConstant          = `"`
	lineSeparatorConstant           = "\n"
	carriageReturnConstant          = "\r"
)

// Change is one entry of git status --porcelain output.
type Change struct {
	Status string `json:"status" yaml:"status"`
	Path   string `json:"path" yaml:"path"`
}

// ChangeSet is the working tree state of a repository.
type ChangeSet struct {
	Branch  string   `json:"branch" yaml:"branch"`
	Changes []Change `json:"changes" yaml:"changes"`
}

// Empty reports whether the working tree has no changes.
func (changeSet ChangeSet) Empty() bool {
	return len(changeSet.Changes) == 0
}

// ParseStatus parses git status --porcelain output. Renamed and copied entries keep their destination path.
func ParseStatus(porcelain string) ChangeSet {
	changeSet := ChangeSet{Changes: []Change{}}
	for _, line := range strings.Split(porcelain, lineSeparatorConstant) {
		line = strings.TrimSuffix(line, carriageReturnConstant)
		if len(strings.TrimSpace(line)) == 0 || len(line) <= porcelainPathOffsetConstant {
			continue
		}
		status := line[:porcelainStatusWidthConstant]
		path := line[porcelainPathOffsetConstant:]
		if strings.ContainsAny(status, renameOrCopyStatusCodesConstant) {
			if separatorIndex := strings.Index(path, renameSeparatorConstant); separatorIndex >= 0 {
				path = path[separatorIndex+len(renameSeparatorConstant):]
			}
		}
		changeSet.Changes = append(changeSet.Changes, Change{
			Status: status,
			Path:   unquotePath(strings.TrimSpace(path)),
		})
	}
	return changeSet
}

func unquotePath(path string) string {
	if !strings.HasPrefix(path, quoteCharacterConstant) || !strings.HasSuffix(path, quoteCharacterConstant) {
		return path
	}
	unquoted, unquoteError := strconv.Unquote(path)
	if unquoteError != nil {
		return path
	}
	return unquoted
}
