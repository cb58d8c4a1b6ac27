package mappers

import (
	v1 "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/store/model"
)

func UploadToApi(upload *model.Upload) v1.Upload {
	return v1.Upload{
		ID:              upload.ID,
		URL:             upload.URL,
		PdfName:         upload.PdfName,
		ProcessingState: upload.ProcessingState,
		PdfID:           upload.PdfID,
		Pages:           upload.Pages,
		Error:           upload.Error,
		CreatedAt:       upload.CreatedAt,
		ProcessedAt:     upload.ProcessedAt,
	}
}

func UploadListToApi(uploads model.UploadList) v1.UploadList {
	out := make(v1.UploadList, len(uploads))
	for i := range uploads {
		out[i] = UploadToApi(&uploads[i])
	}
	return out
}

func ExamToApi(exam *model.Exam) v1.Exam {
	out := v1.Exam{
		ID:              exam.ID,
		Name:            exam.Name,
		ProcessingState: exam.ProcessingState,
		QuizID:          exam.QuizID,
		Error:           exam.Error,
		CreatedAt:       exam.CreatedAt,
		GeneratedAt:     exam.GeneratedAt,
	}
	if exam.Questions != nil {
		out.Questions = QuestionsToApi(exam.Questions.Data)
	}
	return out
}

func ExamListToApi(exams model.ExamList) v1.ExamList {
	out := make(v1.ExamList, len(exams))
	for i := range exams {
		out[i] = ExamToApi(&exams[i])
	}
	return out
}

func QuestionsToApi(questions []model.QuizQuestion) []v1.QuizQuestion {
	out := make([]v1.QuizQuestion, len(questions))
	for i, q := range questions {
		out[i] = v1.QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}
	return out
}
