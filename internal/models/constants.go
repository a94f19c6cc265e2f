package models

// HeadingPatterns are tried in priority order against each candidate line of a
// page; the first pattern with a match anywhere in the scan window sets the
// chapter for that page and the pages that follow.
var HeadingPatterns = []string{
	`^Chapter\s+\d+[:.\s]+(.+)$`,
	`^CHAPTER\s+\d+[:.\s]+(.+)$`,
	`^Section\s+\d+[:.\s]+(.+)$`,
	`^SECTION\s+\d+[:.\s]+(.+)$`,
	`^\d+\.\s+([A-Z][A-Za-z\s]{3,50})$`,
	`^([A-Z][A-Z\s]{3,50})$`,
}

// ChapterMentionPatterns extract a chapter phrase from a query when no known
// chapter name appears verbatim.
var ChapterMentionPatterns = []string{
	`(?i)\bin (?:the )?([a-z]+(?: [a-z]+)*) (?:chapter|section)\b`,
	`(?i)\b(?:chapter|section) (?:on |about )?([a-z]+(?: [a-z]+)*)\b`,
}

const (
	DefaultChapter = "Introduction"

	// Pages under MinPageChars are treated as blank or noise and skipped.
	MinPageChars = 50
	// Chunks must exceed MinChunkChars to be emitted.
	MinChunkChars = 100
	// HeadingScanLines bounds how many usable lines of a page are checked for
	// a heading. Usable means length within HeadingMinLen..HeadingMaxLen.
	HeadingScanLines = 5
	HeadingMinLen    = 3
	HeadingMaxLen    = 100

	DefaultChunkSize    = 800
	DefaultOverlapWords = 20
	DefaultTopK         = 3

	// ChunkIDFormat yields dense ordinal ids, scoped to one ingestion run.
	ChunkIDFormat = "chunk_%d"

	EmbedBatchSize = 32
	WriteBatchSize = 100
)

const SystemPrompt = `You are a helpful technical support assistant. Your job is to answer questions about a technical manual based ONLY on the provided context.

IMPORTANT RULES:
1. Answer ONLY based on the context provided
2. If the context doesn't contain the answer, say "I don't have enough information in the manual to answer that question."
3. DO NOT make up information or use knowledge outside the provided context
4. Be concise and specific
5. Reference the chapter or section when relevant
6. If multiple sources are provided, synthesize the information clearly`

const UserPromptTemplate = `CONTEXT FROM MANUAL:
%s

USER QUESTION: %s

Please answer based only on the context above.`

const (
	SourceBlockTemplate = "[Source %d - Chapter: %s, Page: %d]\n%s"
	ContextSeparator    = "\n\n---\n\n"

	// InsufficientContextAnswer is returned without calling the model when
	// retrieval comes back empty.
	InsufficientContextAnswer = "I don't have enough information to answer that question. The retrieved context doesn't contain relevant information."
)
