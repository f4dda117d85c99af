package changes

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/ui"
)

const (
	statusTitleConstant              = "Git Status"
	diffTitleTemplateConstant        = "Diff for %s"
	diffAllTitleConstant             = "Diff"
	commitsTitleConstant             = "Recent Commits"
	pullRequestsTitleTemplate        = "Pull Requests (%s)"
	detailLineTemplateConstant       = "  %s: %s\n"
	changesHeaderConstant            = "  Changes:\n"
	changeLineTemplateConstant       = "    %s %s\n"
	noChangesMessageConstant         = "No changes to commit.\n"
	committedTemplateConstant        = "Committed: %s\n"
	pushedTemplateConstant           = "Pushed: %s\n"
	branchCreatedTemplateConstant    = "Created branch: %s\n"
	commitLineTemplateConstant       = "  [%s] %s\n"
	commitAuthorTemplateConstant     = "    %s - %s\n"
	pullRequestCreatedTemplate       = "Created PR: %s\n"
	pullRequestLineTemplateConstant  = "  #%d %s (%s -> %s)\n"
	pullRequestOwnerTemplateConstant = "    %s - %s\n"
	noPullRequestsMessageConstant    = "  No pull requests found.\n"
	noCommitsMessageConstant         = "  No commits found.\n"
	labelBranchConstant              = "Branch"
	labelChangedFilesConstant        = "Changed files"
	detachedBranchPlaceholder        = "(detached)"
	diffTrailingNewlineConstant      = "\n"
	remoteBranchSeparatorConstant    = "/"
)

// Reporter renders git and pull request results as text.
type Reporter struct {
	writer  io.Writer
	palette ui.Palette
	clock   func() time.Time
}

// NewReporter constructs a Reporter writing to writer. A nil clock uses time.Now.
func NewReporter(writer io.Writer, palette ui.Palette, clock func() time.Time) *Reporter {
	if clock == nil {
		clock = time.Now
	}
	return &Reporter{writer: writer, palette: palette, clock: clock}
}

// RenderStatus prints the branch and changed files.
func (reporter *Reporter) RenderStatus(changeSet ChangeSet) error {
	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, statusTitleConstant); sectionError != nil {
		return sectionError
	}
	branch := changeSet.Branch
	if len(branch) == 0 {
		branch = detachedBranchPlaceholder
	}
	fmt.Fprintf(reporter.writer, detailLineTemplateConstant, labelBranchConstant, branch)
	fmt.Fprintf(reporter.writer, detailLineTemplateConstant, labelChangedFilesConstant, fmt.Sprint(len(changeSet.Changes)))
	if changeSet.Empty() {
		return nil
	}
	fmt.Fprint(reporter.writer, changesHeaderConstant)
	for _, change := range changeSet.Changes {
		fmt.Fprintf(reporter.writer, changeLineTemplateConstant, reporter.palette.Secondary(change.Status), change.Path)
	}
	return nil
}

// RenderDiff prints diff under a heading naming file.
func (reporter *Reporter) RenderDiff(file string, diff string) error {
	title := diffAllTitleConstant
	if len(strings.TrimSpace(file)) > 0 {
		title = fmt.Sprintf(diffTitleTemplateConstant, file)
	}
	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, title); sectionError != nil {
		return sectionError
	}
	if !strings.HasSuffix(diff, diffTrailingNewlineConstant) {
		diff += diffTrailingNewlineConstant
	}
	_, writeError := fmt.Fprint(reporter.writer, diff)
	return writeError
}

// RenderCommit reports the outcome of a commit.
func (reporter *Reporter) RenderCommit(result AutoCommitResult, remote string) error {
	if !result.Committed {
		_, writeError := fmt.Fprint(reporter.writer, noChangesMessageConstant)
		return writeError
	}
	fmt.Fprintf(reporter.writer, committedTemplateConstant, reporter.palette.Success(result.Message))
	if result.Pushed {
		return reporter.RenderPush(remote, result.ChangeSet.Branch)
	}
	return nil
}

// RenderPush reports a push of branch to remote.
func (reporter *Reporter) RenderPush(remote string, branch string) error {
	target := remote
	if len(branch) > 0 {
		target = remote + remoteBranchSeparatorConstant + branch
	}
	_, writeError := fmt.Fprintf(reporter.writer, pushedTemplateConstant, target)
	return writeError
}

// RenderBranch reports a created branch.
func (reporter *Reporter) RenderBranch(name string) error {
	_, writeError := fmt.Fprintf(reporter.writer, branchCreatedTemplateConstant, reporter.palette.Success(name))
	return writeError
}

// RenderCommits prints recent history.
func (reporter *Reporter) RenderCommits(commits []Commit) error {
	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, commitsTitleConstant); sectionError != nil {
		return sectionError
	}
	if len(commits) == 0 {
		_, writeError := fmt.Fprint(reporter.writer, noCommitsMessageConstant)
		return writeError
	}
	for _, commit := range commits {
		fmt.Fprintf(reporter.writer, commitLineTemplateConstant, reporter.palette.Secondary(commit.Hash), commit.Message)
		fmt.Fprintf(reporter.writer, commitAuthorTemplateConstant, commit.Author, commit.RelativeTime)
	}
	return nil
}

// RenderPullRequest reports a created pull request.
func (reporter *Reporter) RenderPullRequest(pullRequest githubapi.PullRequest) error {
	_, writeError := fmt.Fprintf(reporter.writer, pullRequestCreatedTemplate, pullRequest.HTMLURL)
	return writeError
}

// RenderPullRequests prints a pull request listing.
func (reporter *Reporter) RenderPullRequests(state githubapi.PullRequestState, pullRequests []githubapi.PullRequest) error {
	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, fmt.Sprintf(pullRequestsTitleTemplate, state)); sectionError != nil {
		return sectionError
	}
	if len(pullRequests) == 0 {
		_, writeError := fmt.Fprint(reporter.writer, noPullRequestsMessageConstant)
		return writeError
	}
	now := reporter.clock()
	for _, pullRequest := range pullRequests {
		fmt.Fprintf(reporter.writer, pullRequestLineTemplateConstant, pullRequest.Number, pullRequest.Title, pullRequest.HeadRefName, pullRequest.BaseRefName)
		fmt.Fprintf(reporter.writer, pullRequestOwnerTemplateConstant, ui.ValueOrPlaceholder(pullRequest.Author), ui.RelativeTime(pullRequest.CreatedAt, now))
	}
	return nil
}
