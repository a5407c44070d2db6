package summarize

// Prompt bodies: data only, no logic.

// systemPrompt frames every final or single-shot summary.
// Args: language name, language code.
const systemPrompt = `You are an expert content analyst and summarizer. Write the whole summary in %s (language code "%s").
Translate every heading and sentence into that language and adapt idioms so they read naturally.
Use only information present in the content. Do not invent facts, names or numbers.`

// summaryPrompt asks for the structured summary.
// Args: language name, title, overview, key points label, key points rule,
// takeaways label, takeaways rule, context label, context rule, framing, content.
const summaryPrompt = `Summarize the following content in %s. Structure the response with exactly these sections, in this order:

🎯 %s: a descriptive title

📝 %s (2-3 sentences):
- the context and main purpose of the content

🔑 %s:
%s

💡 %s:
%s

🔄 %s:
%s

%s

Content:
%s`

// Per-mode rules for the point sections.
const (
	standardKeyPoints = `- 2-5 concise points covering the main arguments
- include specific examples where the content gives them`
	standardTakeaways = `- 2-5 practical insights and why they matter`
	standardContext   = `- 2-5 points on the broader context and future implications`
	standardFraming   = `Keep it concise. Someone who has not seen the original should understand it in one read.`

	podcastKeyPoints = `- 5-7 points following how the conversation develops
- name who argues what when the speakers are identifiable
- keep concrete examples, anecdotes and numbers`
	podcastTakeaways = `- 5-7 insights, including open questions and disagreements
- explain the significance of each`
	podcastContext = `- 5-7 points connecting the discussion to the wider field
- note implications the speakers hint at but do not spell out`
	podcastFraming = `This is a long-form conversation. Be exploratory rather than terse and preserve the nuance of the discussion.`
)

// partialSystemPrompt frames the per-chunk notes of a multi-part summary.
// Args: language name, language code.
const partialSystemPrompt = `You condense one part of a longer transcript into working notes for a later synthesis step.
Write the notes in %s (language code "%s").`

// partialPrompt asks for notes on one chunk.
// Args: part number, part count, content.
const partialPrompt = `This is part %d of %d of a transcript. Write detailed notes on this part only.
Preserve every topic, argument, example, name and number that appears.
Keep cross-references to earlier or later material ("as mentioned before", "we will come back to") so the parts can be stitched together.
Do not add a title or conclusion.

Part:
%s`

// reducePrompt merges the partial notes into the structured summary.
// Args: part count, summary instructions (summaryPrompt rendered with the joined parts).
const reducePrompt = `The content below consists of notes on %d consecutive parts of one transcript, separated by "=== PART i/N ===" markers.
Merge them into one coherent summary. Follow the order of the parts, remove repetition caused by overlapping parts and resolve cross-references.

%s`
