// Package pack provides lesson pack domain models, the repository over the
// durable store, and the download manager.
package pack

// MaxQuestionsPerChapter caps the practice questions bundled into one pack.
const MaxQuestionsPerChapter = 20

// Topic is one topic within a downloaded chapter, in curriculum order.
type Topic struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ConceptCount    int      `json:"conceptCount"`
	Content         string   `json:"content"`
	Formulas        []string `json:"formulas"`
	TextbookPageRef string   `json:"textbookPageRef,omitempty"`
}

// Question is one practice question bundled into a pack.
type Question struct {
	ID            string   `json:"id"`
	TopicID       string   `json:"topicId"`
	Question      string   `json:"question"`
	QuestionType  string   `json:"questionType"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Hint          string   `json:"hint,omitempty"`
	Solution      string   `json:"solution,omitempty"`
	CurriculumRef string   `json:"curriculumRef,omitempty"`
	Difficulty    string   `json:"difficulty"`
}

// LessonPack is the complete offline bundle for one chapter.
// Timestamps are epoch milliseconds.
type LessonPack struct {
	ChapterID      string     `json:"chapterId"`
	ChapterName    string     `json:"chapterName"`
	SubjectID      string     `json:"subjectId"`
	SubjectName    string     `json:"subjectName"`
	Topics         []Topic    `json:"topics"`
	Questions      []Question `json:"questions"`
	DownloadedAt   int64      `json:"downloadedAt"`
	LastAccessedAt int64      `json:"lastAccessedAt"`
	SizeBytes      int64      `json:"sizeBytes"`
}

// Summary is the storage-screen view of one downloaded pack.
type Summary struct {
	ChapterID     string `json:"chapterId" yaml:"chapter_id"`
	ChapterName   string `json:"chapterName" yaml:"chapter_name"`
	SubjectName   string `json:"subjectName" yaml:"subject_name"`
	TopicCount    int    `json:"topicCount" yaml:"topic_count"`
	QuestionCount int    `json:"questionCount" yaml:"question_count"`
	SizeBytes     int64  `json:"sizeBytes" yaml:"size_bytes"`
	DownloadedAt  int64  `json:"downloadedAt" yaml:"downloaded_at"`
}

// Summary returns the pack's summary record.
func (p *LessonPack) Summary() Summary {
	return Summary{
		ChapterID:     p.ChapterID,
		ChapterName:   p.ChapterName,
		SubjectName:   p.SubjectName,
		TopicCount:    len(p.Topics),
		QuestionCount: len(p.Questions),
		SizeBytes:     p.SizeBytes,
		DownloadedAt:  p.DownloadedAt,
	}
}
