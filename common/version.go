package common

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// Build metadata, overridable at link time:
//
//	go build -ldflags "-X github.com/agglayer/agglayer-go/common.Version=v0.2.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// GetCommitHash returns the short hash of the checked-out commit, falling back
// to the executable's directory when not running from the working tree.
func GetCommitHash() string {
	if cwd, err := os.Getwd(); err == nil {
		if hash := commitHashFromPath(cwd); hash != "" {
			return shortHash(hash)
		}
	}

	if exePath, err := os.Executable(); err == nil {
		if hash := commitHashFromPath(filepath.Dir(exePath)); hash != "" {
			return shortHash(hash)
		}
	}

	return "unknown"
}

func shortHash(hash string) string {
	if len(hash) >= 8 {
		return hash[:8]
	}
	return hash
}

func commitHashFromPath(path string) string {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
