package model

// OptionsPerQuestion is the fixed number of choices of an MCQ.
const OptionsPerQuestion = 4

type Question struct {
	ID                 string   `db:"id" json:"id"`
	Text               string   `db:"text" json:"text"`
	Options            []string `db:"options" json:"options"`
	CorrectOptionIndex int      `db:"correct_option_index" json:"correct_option_index"`
	Explanation        string   `db:"explanation" json:"explanation"`
	Topic              string   `db:"topic" json:"topic"`
}

// QuestionSet is an ordered, read-only list of questions.
type QuestionSet struct {
	ID        string     `db:"id" json:"id"`
	Questions []Question `json:"questions"`
}
