package models

const (
	// GeneralQuerySentinel is the exact token the generation model is
	// instructed to emit when a question is general knowledge rather than
	// about the uploaded content. Detection is substring containment over the
	// trimmed reply; the model is not guaranteed to obey the format exactly.
	GeneralQuerySentinel = "GENERAL_QUERY"

	// NoRelevantInfoReply is returned verbatim when retrieval finds nothing.
	NoRelevantInfoReply = "I couldn't find relevant information in the document to answer your question."

	// ImageDescribePrompt is the fixed instruction for describing extracted images.
	ImageDescribePrompt = "Describe this image in detail. Include any text, diagrams, " +
		"charts, tables, or important visual elements. Be specific and comprehensive."
)

var (
	// DocumentQueryPromptTemplate takes the retrieved context block and the
	// user question. The model must classify the question first and answer
	// with the sentinel alone when it is general knowledge.
	DocumentQueryPromptTemplate = `You are a helpful assistant that answers questions based on the provided document context.

Document Context:
%s

User Question: %s

IMPORTANT: First, determine if this question is:
A) About the content IN THE DOCUMENT (specific questions about what's written, problems to solve from the document, etc.)
B) A GENERAL knowledge question that's NOT about this specific document (definitions, concepts, general explanations)

If it's TYPE B (general knowledge not in document):
- Respond with exactly: "GENERAL_QUERY"
- Do not answer the question
- Just return those two words

If it's TYPE A (about the document):
- Answer based ONLY on the information provided in the document context above
- If the context doesn't contain enough information, say so clearly
- Be specific and cite relevant parts of the document when possible
- If the context mentions page numbers, include them in your answer
- Keep your answer concise but complete

Answer:`

	// ImageQueryPromptTemplate takes the user question. The raw image travels
	// alongside the prompt in the same vision call.
	ImageQueryPromptTemplate = `You are a helpful AI tutor. The user has uploaded an image and is asking you a question.

User Question: %s

IMPORTANT: First, determine if this question is:
A) About the content IN THE IMAGE (solve this, what's in the image, explain this diagram, etc.)
B) A GENERAL knowledge question (what is calculus, explain photosynthesis, etc.)

If it's TYPE B (general knowledge):
- Respond with exactly: "GENERAL_QUERY"
- Do not answer the question
- Just return those two words

If it's TYPE A (about the image):
- Look at the image and answer based on what you see
- Use clear headings with ## for main sections
- Use **bold** for step numbers and key terms
- Show your work step by step and state the final answer clearly

Answer:`
)
