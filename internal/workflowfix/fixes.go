package workflowfix

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	jobsKeyConstant              = "jobs"
	stepsKeyConstant             = "steps"
	usesKeyConstant              = "uses"
	runKeyConstant               = "run"
	withKeyConstant              = "with"
	nameKeyConstant              = "name"
	pathKeyConstant              = "path"
	keyKeyConstant               = "key"
	restoreKeysKeyConstant       = "restore-keys"
	dockerfileKeyConstant        = "dockerfile"
	permissionsKeyConstant       = "permissions"
	contentsKeyConstant          = "contents"
	pullRequestsKeyConstant      = "pull-requests"
	concurrencyKeyConstant       = "concurrency"
	groupKeyConstant             = "group"
	cancelInProgressKeyConstant  = "cancel-in-progress"
	timeoutMinutesKeyConstant    = "timeout-minutes"
	readPermissionConstant       = "read"
	writePermissionConstant      = "write"
	concurrencyGroupConstant     = "${{ github.workflow }}-${{ github.ref }}"
	unpinnedMainSuffixConstant   = "@main"
	unpinnedLatestSuffixConstant = "@latest"
	actionVersionSeparator       = "@"
	dockerMarkerConstant         = "docker"
	buildxMarkerConstant         = "buildx"
	buildkitMarkerConstant       = "buildkit"
	cacheActionMarkerConstant    = "actions/cache"
	cacheStepNameConstant        = "Cache Docker layers"
	cacheStepActionConstant      = "actions/cache@v4"
	cacheStepPathConstant        = "/tmp/.buildxcache"
	cacheStepKeyConstant         = "${{ runner.os }}-buildx-${{ github.sha }}"
	cacheStepRestoreKeysConstant = "${{ runner.os }}-buildx-"
	relativePathPrefixConstant   = "./"

	// DefaultTimeoutMinutes is the job timeout added when none is requested.
	DefaultTimeoutMinutes = 30

	pinnedActionTemplate     = "Pinned %s -> %s"
	permissionsAddedMessage  = "Added minimal permissions (contents: read, pull-requests: write)"
	timeoutAddedTemplate     = "Added timeout-minutes: %d to job '%s'"
	concurrencyAddedMessage  = "Added concurrency control (cancel-in-progress: true)"
	dockerCacheAddedTemplate = "Added Docker layer caching to job '%s'"
	dockerfileFixedTemplate  = "Fixed Dockerfile path in job '%s'"
	pinnedReferenceTemplate  = "%s@%s"
)

// ApplyOptions selects the edits ApplyAll performs.
type ApplyOptions struct {
	TimeoutMinutes  int
	SkipDockerCache bool
}

var pinnedActionVersions = map[string]string{
	"actions/checkout":          "v4",
	"actions/setup-node":        "v4",
	"actions/setup-python":      "v5",
	"actions/setup-dotnet":      "v4",
	"actions/cache":             "v4",
	"actions/upload-artifact":   "v4",
	"actions/download-artifact": "v4",
}

// PinnedActionVersions returns the versions unpinned actions are rewritten to.
func PinnedActionVersions() map[string]string {
	versions := make(map[string]string, len(pinnedActionVersions))
	for action, version := range pinnedActionVersions {
		versions[action] = version
	}
	return versions
}

// PinActions rewrites @main and @latest references of known actions to a fixed version.
func (document *Document) PinActions() bool {
	changed := false
	for _, job := range document.jobs() {
		steps := jobSteps(job.node)
		if steps == nil {
			continue
		}
		for _, step := range steps.Content {
			usesNode := mappingValue(step, usesKeyConstant)
			if usesNode == nil || usesNode.Kind != yaml.ScalarNode {
				continue
			}
			reference := usesNode.Value
			if !strings.HasSuffix(reference, unpinnedMainSuffixConstant) && !strings.HasSuffix(reference, unpinnedLatestSuffixConstant) {
				continue
			}
			action := reference[:strings.LastIndex(reference, actionVersionSeparator)]
			version, known := pinnedActionVersions[action]
			if !known {
				continue
			}
			pinned := fmt.Sprintf(pinnedReferenceTemplate, action, version)
			usesNode.Value = pinned
			usesNode.Style = 0
			document.recordFix(fmt.Sprintf(pinnedActionTemplate, reference, pinned))
			changed = true
		}
	}
	return changed
}

// AddPermissions adds a least-privilege top-level permissions block when none exists.
func (document *Document) AddPermissions() bool {
	if hasKey(document.root, permissionsKeyConstant) {
		return false
	}
	appendMappingValue(document.root, permissionsKeyConstant, mappingNode(
		keyValue{key: contentsKeyConstant, value: stringNode(readPermissionConstant)},
		keyValue{key: pullRequestsKeyConstant, value: stringNode(writePermissionConstant)},
	))
	document.recordFix(permissionsAddedMessage)
	return true
}

// AddTimeout sets timeout-minutes on every job lacking one. Non-positive minutes use DefaultTimeoutMinutes.
func (document *Document) AddTimeout(minutes int) bool {
	if minutes <= 0 {
		minutes = DefaultTimeoutMinutes
	}
	changed := false
	for _, job := range document.jobs() {
		// Jobs calling a reusable workflow reject timeout-minutes.
		if hasKey(job.node, timeoutMinutesKeyConstant) || hasKey(job.node, usesKeyConstant) {
			continue
		}
		appendMappingValue(job.node, timeoutMinutesKeyConstant, integerNode(minutes))
		document.recordFix(fmt.Sprintf(timeoutAddedTemplate, minutes, job.name))
		changed = true
	}
	return changed
}

// AddConcurrency adds a concurrency group that cancels superseded runs when none exists.
func (document *Document) AddConcurrency() bool {
	if hasKey(document.root, concurrencyKeyConstant) {
		return false
	}
	appendMappingValue(document.root, concurrencyKeyConstant, mappingNode(
		keyValue{key: groupKeyConstant, value: stringNode(concurrencyGroupConstant)},
		keyValue{key: cancelInProgressKeyConstant, value: booleanNode(true)},
	))
	document.recordFix(concurrencyAddedMessage)
	return true
}

// AddDockerCache inserts a layer cache step before the first docker step of jobs that have no cache yet.
func (document *Document) AddDockerCache() bool {
	changed := false
	for _, job := range document.jobs() {
		steps := jobSteps(job.node)
		if steps == nil {
			continue
		}

		firstDockerIndex := -1
		cached := false
		for index, step := range steps.Content {
			if firstDockerIndex < 0 && isDockerStep(step) {
				firstDockerIndex = index
			}
			if isCacheStep(step) {
				cached = true
			}
		}
		if firstDockerIndex < 0 || cached {
			continue
		}

		updatedSteps := make([]*yaml.Node, 0, len(steps.Content)+1)
		updatedSteps = append(updatedSteps, steps.Content[:firstDockerIndex]...)
		updatedSteps = append(updatedSteps, dockerCacheStep())
		updatedSteps = append(updatedSteps, steps.Content[firstDockerIndex:]...)
		steps.Content = updatedSteps

		document.recordFix(fmt.Sprintf(dockerCacheAddedTemplate, job.name))
		changed = true
	}
	return changed
}

// FixDockerfilePath points every with.dockerfile input that is not already relative to ./dockerfilePath.
func (document *Document) FixDockerfilePath(dockerfilePath string) bool {
	trimmedPath := strings.TrimPrefix(strings.TrimSpace(dockerfilePath), relativePathPrefixConstant)
	if len(trimmedPath) == 0 {
		return false
	}
	replacement := relativePathPrefixConstant + trimmedPath

	changed := false
	for _, job := range document.jobs() {
		steps := jobSteps(job.node)
		if steps == nil {
			continue
		}
		for _, step := range steps.Content {
			dockerfileNode := mappingValue(mappingValue(step, withKeyConstant), dockerfileKeyConstant)
			if dockerfileNode == nil || dockerfileNode.Kind != yaml.ScalarNode {
				continue
			}
			if strings.HasPrefix(dockerfileNode.Value, relativePathPrefixConstant) {
				continue
			}
			dockerfileNode.Value = replacement
			dockerfileNode.Tag = stringTagConstant
			dockerfileNode.Style = 0
			document.recordFix(fmt.Sprintf(dockerfileFixedTemplate, job.name))
			changed = true
		}
	}
	return changed
}

// ApplyAll runs the recommended edits in order and returns how many of them changed the document.
func (document *Document) ApplyAll(options ApplyOptions) int {
	edits := []func() bool{
		document.PinActions,
		document.AddPermissions,
		func() bool { return document.AddTimeout(options.TimeoutMinutes) },
		document.AddConcurrency,
	}
	if !options.SkipDockerCache {
		edits = append(edits, document.AddDockerCache)
	}

	count := 0
	for _, edit := range edits {
		if edit() {
			count++
		}
	}
	return count
}

func isDockerStep(step *yaml.Node) bool {
	return strings.Contains(strings.ToLower(scalarString(step, runKeyConstant)), dockerMarkerConstant) ||
		strings.Contains(strings.ToLower(scalarString(step, usesKeyConstant)), dockerMarkerConstant)
}

func isCacheStep(step *yaml.Node) bool {
	uses := strings.ToLower(scalarString(step, usesKeyConstant))
	return strings.Contains(uses, buildxMarkerConstant) ||
		strings.Contains(uses, cacheActionMarkerConstant) ||
		strings.Contains(strings.ToLower(scalarString(step, runKeyConstant)), buildkitMarkerConstant)
}

func dockerCacheStep() *yaml.Node {
	return mappingNode(
		keyValue{key: nameKeyConstant, value: stringNode(cacheStepNameConstant)},
		keyValue{key: usesKeyConstant, value: stringNode(cacheStepActionConstant)},
		keyValue{key: withKeyConstant, value: mappingNode(
			keyValue{key: pathKeyConstant, value: stringNode(cacheStepPathConstant)},
			keyValue{key: keyKeyConstant, value: stringNode(cacheStepKeyConstant)},
			keyValue{key: restoreKeysKeyConstant, value: stringNode(cacheStepRestoreKeysConstant)},
		)},
	)
}
