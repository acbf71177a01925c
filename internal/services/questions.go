package services

import "battlequiz-game/internal/models"

// QuestionBank is the fixed, ordered question sequence a game runs through.
// The bank's length bounds the game: the room ends once the last question has
// been resolved. Each question carries its own correct index; the resolver
// reads it from here rather than assuming a constant.
type QuestionBank struct {
	questions []models.QuestionEntry
}

func (qb *QuestionBank) Get(index int) *models.QuestionEntry {
	if index < 0 || index >= len(qb.questions) {
		return nil
	}
	return &qb.questions[index]
}

func (qb *QuestionBank) Len() int {
	return len(qb.questions)
}

// LastIndex is the index of the final question.
func (qb *QuestionBank) LastIndex() int {
	return len(qb.questions) - 1
}

func NewQuestionBankWith(questions []models.QuestionEntry) *QuestionBank {
	return &QuestionBank{questions: questions}
}

func NewQuestionBank() *QuestionBank {
	return &QuestionBank{
		questions: []models.QuestionEntry{
			{
				ID:      "q1",
				Text:    "Malware is malicious software designed to damage systems?",
				Options: []string{"1. FALSE - Helps computers run faster", "2. TRUE - Designed to damage or gain unauthorized access"},
				Correct: 1,
			},
			{
				ID:      "q2",
				Text:    "A virus is a common type of malware?",
				Options: []string{"1. FALSE - It's a security tool", "2. TRUE - Replicates and spreads to other computers"},
				Correct: 1,
			},
			{
				ID:      "q3",
				Text:    "Trojan horses disguise themselves as legitimate software?",
				Options: []string{"1. FALSE - They are physical security devices", "2. TRUE - Appear legitimate but contain malicious code"},
				Correct: 1,
			},
			{
				ID:      "q4",
				Text:    "Ransomware encrypts files and demands payment?",
				Options: []string{"1. FALSE - It speeds up your computer", "2. TRUE - Encrypts files and demands payment for decryption"},
				Correct: 1,
			},
			{
				ID:      "q5",
				Text:    "Phishing is a social engineering attack to steal information?",
				Options: []string{"1. FALSE - It's a method to catch fish", "2. TRUE - Tricks victims into revealing sensitive information"},
				Correct: 1,
			},
			{
				ID:      "q6",
				Text:    "A botnet is a network of infected computers?",
				Options: []string{"1. FALSE - It's a social media network", "2. TRUE - Network controlled by cybercriminals"},
				Correct: 1,
			},
			{
				ID:      "q7",
				Text:    "Spyware secretly monitors user activity?",
				Options: []string{"1. FALSE - It protects from viruses", "2. TRUE - Secretly collects information about users"},
				Correct: 1,
			},
			{
				ID:      "q8",
				Text:    ".exe files are commonly used by malware on Windows?",
				Options: []string{"1. FALSE - .txt files are more dangerous", "2. TRUE - Executable programs can contain malware"},
				Correct: 1,
			},
			{
				ID:      "q9",
				Text:    "Keyloggers record keystrokes to steal passwords?",
				Options: []string{"1. FALSE - They help log into websites faster", "2. TRUE - Record keystrokes to steal sensitive data"},
				Correct: 1,
			},
			{
				ID:      "q10",
				Text:    "Keeping software updated helps protect against malware?",
				Options: []string{"1. FALSE - Updates make systems more vulnerable", "2. TRUE - Updates and antivirus provide protection"},
				Correct: 1,
			},
			{
				ID:      "q11",
				Text:    "Computer worms spread across networks without user interaction?",
				Options: []string{"1. FALSE - They need user permission to spread", "2. TRUE - Self-replicating malware that spreads automatically"},
				Correct: 1,
			},
			{
				ID:      "q12",
				Text:    "Adware displays unwanted advertisements?",
				Options: []string{"1. FALSE - It blocks all advertisements", "2. TRUE - Shows unwanted ads and tracks browsing habits"},
				Correct: 1,
			},
			{
				ID:      "q13",
				Text:    "Zero-day exploits target known vulnerabilities?",
				Options: []string{"1. FALSE - They target unknown vulnerabilities", "2. TRUE - They only work on patched systems"},
				Correct: 0,
			},
			{
				ID:      "q14",
				Text:    "SQL injection attacks target databases?",
				Options: []string{"1. FALSE - They only affect web browsers", "2. TRUE - Manipulate database queries through input fields"},
				Correct: 1,
			},
			{
				ID:      "q15",
				Text:    "DDoS attacks overwhelm servers with traffic?",
				Options: []string{"1. FALSE - They steal data from servers", "2. TRUE - Flood servers to make them unavailable"},
				Correct: 1,
			},
		},
	}
}
