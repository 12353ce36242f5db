package trigger

// Environment variables set by GitHub Actions.
const (
	envEventName = "GITHUB_EVENT_NAME"
	envRefName   = "GITHUB_REF_NAME"
	envHeadRef   = "GITHUB_HEAD_REF"
)

// FromEnv builds a trigger from the hosting CI system's environment.
// It returns false when no event is present, i.e. outside CI.
func FromEnv(getenv func(string) string) (RunTrigger, bool) {
	name := getenv(envEventName)
	if name == "" {
		return RunTrigger{}, false
	}

	event := ParseEvent(name)
	branch := getenv(envRefName)
	// For pull requests GITHUB_REF_NAME is "<n>/merge"; the source branch
	// lives in GITHUB_HEAD_REF.
	if event == EventPullRequest {
		if head := getenv(envHeadRef); head != "" {
			branch = head
		}
	}
	return New(event, branch), true
}
