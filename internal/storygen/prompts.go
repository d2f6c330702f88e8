package storygen

// Output markers the model is instructed to emit. Parsing is lenient, so a
// model that drifts from the contract still produces a usable story.
const (
	titleMarker       = "TITLE:"
	descriptionMarker = "DESCRIPTION:"
	storyMarker       = "STORY:"
)

// DefaultTitle is used when the model output carries no TITLE: marker
const DefaultTitle = "Untitled Story"

const fullStorySystemPrompt = `You are a talented author of tasteful erotic fiction for adults. ` +
	`Write an immersive short story based on the reader's prompt. All characters are consenting adults. ` +
	`Respond in exactly this format:
TITLE: <a short evocative title>
DESCRIPTION: <one sentence teasing the story>
STORY: <the full story>`

const sampleStorySystemPrompt = `You are a talented author of tasteful erotic fiction for adults. ` +
	`Write a short teaser opening based on the reader's prompt, ending on a cliffhanger that makes ` +
	`the reader want the full story. All characters are consenting adults. ` +
	`Respond in exactly this format:
TITLE: <a short evocative title>
DESCRIPTION: <one sentence teasing the story>
STORY: <the teaser>`

// Token budgets per mode
const (
	fullStoryMaxTokens   = 300
	sampleStoryMaxTokens = 150

	// DefaultTemperature keeps completions varied between retries
	DefaultTemperature = 0.8
)

// SystemPrompt returns the instruction block for the requested mode
func SystemPrompt(sampleMode bool) string {
	if sampleMode {
		return sampleStorySystemPrompt
	}
	return fullStorySystemPrompt
}

// MaxTokens returns the completion budget for the requested mode
func MaxTokens(sampleMode bool) int {
	if sampleMode {
		return sampleStoryMaxTokens
	}
	return fullStoryMaxTokens
}
