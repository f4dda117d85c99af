package workflowfix

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	workflowNotFoundMessageConstant = "workflow not found"
	workflowNotFoundTemplate        = "%w: %s"
	readWorkflowErrorTemplate       = "unable to read workflow %s: %w"
	parseWorkflowErrorTemplate      = "unable to parse workflow %s: %w"
	nonMappingRootTemplate          = "workflow %s must contain a mapping at its root"
	renderWorkflowErrorTemplate     = "unable to render workflow %s: %w"
	writeBackupErrorTemplate        = "unable to write backup %s: %w"
	writeWorkflowErrorTemplate      = "unable to write workflow %s: %w"
	backupSuffixConstant            = ".backup"
	renderIndentConstant            = 2
	defaultFileModeConstant         = fs.FileMode(0o644)
)

// ErrWorkflowNotFound indicates the workflow path does not exist.
var ErrWorkflowNotFound = errors.New(workflowNotFoundMessageConstant)

// Document is a parsed workflow file together with the fixes applied to it.
type Document struct {
	path         string
	original     []byte
	mode         fs.FileMode
	tree         *yaml.Node
	root         *yaml.Node
	fixesApplied []string
}

// SaveOptions controls how a document is written back.
type SaveOptions struct {
	Backup bool
}

// SaveResult reports where a document was written.
type SaveResult struct {
	Path       string
	BackupPath string
}

// Load reads and validates the workflow at path.
func Load(path string) (*Document, error) {
	fileInfo, statError := os.Stat(path)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil, fmt.Errorf(workflowNotFoundTemplate, ErrWorkflowNotFound, path)
		}
		return nil, fmt.Errorf(readWorkflowErrorTemplate, path, statError)
	}

	content, readError := os.ReadFile(path)
	if readError != nil {
		return nil, fmt.Errorf(readWorkflowErrorTemplate, path, readError)
	}

	document, parseError := Parse(path, content)
	if parseError != nil {
		return nil, parseError
	}
	document.mode = fileInfo.Mode().Perm()
	return document, nil
}

// Parse builds a document from workflow content; path is used for messages and saving.
func Parse(path string, content []byte) (*Document, error) {
	var tree yaml.Node
	if unmarshalError := yaml.Unmarshal(content, &tree); unmarshalError != nil {
		return nil, fmt.Errorf(parseWorkflowErrorTemplate, path, unmarshalError)
	}
	if tree.Kind != yaml.DocumentNode || len(tree.Content) == 0 || tree.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf(nonMappingRootTemplate, path)
	}
	if validationError := validateStructure(path, &tree); validationError != nil {
		return nil, validationError
	}

	original := make([]byte, len(content))
	copy(original, content)

	return &Document{
		path:         path,
		original:     original,
		mode:         defaultFileModeConstant,
		tree:         &tree,
		root:         tree.Content[0],
		fixesApplied: []string{},
	}, nil
}

// Path returns the file the document was loaded from.
func (document *Document) Path() string {
	return document.path
}

// Original returns the bytes the document was parsed from.
func (document *Document) Original() []byte {
	return document.original
}

// FixesApplied lists the descriptions of every edit that changed the document.
func (document *Document) FixesApplied() []string {
	fixes := make([]string, len(document.fixesApplied))
	copy(fixes, document.fixesApplied)
	return fixes
}

// Render serializes the current tree.
func (document *Document) Render() ([]byte, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(renderIndentConstant)
	if encodeError := encoder.Encode(document.tree); encodeError != nil {
		return nil, fmt.Errorf(renderWorkflowErrorTemplate, document.path, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return nil, fmt.Errorf(renderWorkflowErrorTemplate, document.path, closeError)
	}
	return buffer.Bytes(), nil
}

// Save writes the backup (when requested) and then the rendered document over the original path.
func (document *Document) Save(options SaveOptions) (SaveResult, error) {
	rendered, renderError := document.Render()
	if renderError != nil {
		return SaveResult{}, renderError
	}

	result := SaveResult{Path: document.path}
	if options.Backup {
		backupPath := document.path + backupSuffixConstant
		if writeError := os.WriteFile(backupPath, document.original, document.mode); writeError != nil {
			return SaveResult{}, fmt.Errorf(writeBackupErrorTemplate, backupPath, writeError)
		}
		result.BackupPath = backupPath
	}

	if writeError := os.WriteFile(document.path, rendered, document.mode); writeError != nil {
		return SaveResult{}, fmt.Errorf(writeWorkflowErrorTemplate, document.path, writeError)
	}
	return result, nil
}

func (document *Document) recordFix(description string) {
	document.fixesApplied = append(document.fixesApplied, description)
}
