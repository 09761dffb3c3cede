package quiz

// Prompt templates for the three quiz roles. Each is a fmt template
// filled in by the engine; generation parameters live with the call
// site.

const freeTextQuestionPrompt = `SOURCE: %s

TASK: Create a %s question based on the SOURCE.
OUTPUT FORMAT: Valid JSON only.
{
    "question": "The question text?",
    "answer": "The concise, correct answer key."
}`

const multipleChoiceQuestionPrompt = `SOURCE: %s

TASK: Create a %s MCQ based on the SOURCE.

OUTPUT FORMAT: Valid JSON only.
{
    "question": "The question text?",
    "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
    "answer": "Option 2",
    "explanation": "Why this is correct."
}`

const hintPrompt = `SOURCE MATERIAL: %s
QUESTION: %s
TASK: Provide a short, helpful hint without revealing the answer.`

const gradePrompt = `QUESTION: %s
STUDENT ANSWER: %s
CORRECT ANSWER (FROM KEY): %s
SOURCE CONTEXT: %s

TASK: Compare STUDENT ANSWER to CORRECT ANSWER.
- Ignore capitalization/punctuation.
- If the meaning matches, it is Correct.

OUTPUT STRICTLY: IS_CORRECT: [Yes/No] | EXPLANATION: [Short text]`
