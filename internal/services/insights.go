package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	InsightsGeneral = "general"
	InsightsStudent = "student"

	atRiskScore           = 4
	recentStudentConvs    = 10
	recentStudentScores   = 7
	insightsFallbackReply = "Não foi possível gerar insights no momento."
)

const (
	TrendImproving = "melhorando"
	TrendWorsening = "piorando"
	TrendStable    = "estável"
)

// InsightsService builds wellbeing summaries for administrators and asks a
// text generator to comment on them.
type InsightsService struct {
	db        *gorm.DB
	generator TextGenerator
	now       func() time.Time
}

// NewInsightsService accepts a nil generator; Generate then reports
// ErrInsightsUnavailable.
func NewInsightsService(db *gorm.DB, generator TextGenerator) *InsightsService {
	return &InsightsService{db: db, generator: generator, now: time.Now}
}

type InsightsRequest struct {
	Type      string
	StudentID uint
}

type GeneralInsightsData struct {
	TotalStudents      int64   `json:"total_students"`
	TotalConversations int64   `json:"total_conversations"`
	AverageScore       float64 `json:"average_score"`
	StudentsAtRisk     int64   `json:"students_at_risk"`
}

type StudentInsightsData struct {
	StudentName        string    `json:"student_name"`
	StudentMatricula   string    `json:"student_matricula"`
	TotalConversations int       `json:"total_conversations"`
	AverageScore       float64   `json:"average_score"`
	Trend              string    `json:"trend"`
	RecentScores       []float64 `json:"recent_scores"`
}

type InsightsResult struct {
	Insights string      `json:"insights"`
	Data     interface{} `json:"data"`
}

func (s *InsightsService) Generate(ctx context.Context, req InsightsRequest) (*InsightsResult, error) {
	var (
		data   interface{}
		prompt string
	)

	switch req.Type {
	case InsightsGeneral:
		general, err := s.generalData(ctx)
		if err != nil {
			return nil, err
		}
		data, prompt = general, generalPrompt(general)
	case InsightsStudent:
		if req.StudentID == 0 {
			return nil, validationError("student_id is required for student insights")
		}
		student, err := s.studentData(ctx, req.StudentID)
		if err != nil {
			return nil, err
		}
		data, prompt = student, studentPrompt(student)
	default:
		return nil, validationError("unknown insights type %q", req.Type)
	}

	if s.generator == nil {
		return nil, ErrInsightsUnavailable
	}

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		text = insightsFallbackReply
	}

	logger.Info().Str("type", req.Type).Uint("student_id", req.StudentID).Msg("insights generated")
	return &InsightsResult{Insights: text, Data: data}, nil
}

func (s *InsightsService) generalData(ctx context.Context) (*GeneralInsightsData, error) {
	db := s.db.WithContext(ctx)
	data := &GeneralInsightsData{}

	if err := db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&data.TotalStudents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Conversation{}).Count(&data.TotalConversations).Error; err != nil {
		return nil, err
	}

	var avg float64
	if err := db.Model(&models.ScoreRecord{}).Select("COALESCE(AVG(score), 0)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	data.AverageScore = roundHalfUp(avg, 1)

	weekAgo := s.now().Add(-7 * 24 * time.Hour).UTC()
	if err := db.Model(&models.ScoreRecord{}).
		Where("score < ? AND created_at >= ?", atRiskScore, weekAgo).
		Distinct("user_id").
		Count(&data.StudentsAtRisk).Error; err != nil {
		return nil, err
	}
	return data, nil
}

func (s *InsightsService) studentData(ctx context.Context, studentID uint) (*StudentInsightsData, error) {
	db := s.db.WithContext(ctx)

	student, err := findStudent(db, studentID)
	if err != nil {
		return nil, err
	}

	// only the latest conversations are considered
	var convCount int64
	if err := db.Model(&models.Conversation{}).Where("user_id = ?", studentID).Count(&convCount).Error; err != nil {
		return nil, err
	}
	if convCount > recentStudentConvs {
		convCount = recentStudentConvs
	}

	var scores []float64
	if err := db.Model(&models.ScoreRecord{}).
		Where("user_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(recentStudentScores).
		Pluck("score", &scores).Error; err != nil {
		return nil, err
	}

	data := &StudentInsightsData{
		StudentName:        student.Name,
		StudentMatricula:   student.Matricula,
		TotalConversations: int(convCount),
		Trend:              scoreTrend(scores),
		RecentScores:       scores,
	}
	if len(scores) > 0 {
		sum := 0.0
		for _, sc := range scores {
			sum += sc
		}
		data.AverageScore = roundHalfUp(sum/float64(len(scores)), 1)
	}
	return data, nil
}

// scoreTrend compares the newest score against the oldest of a newest-first
// series.
func scoreTrend(newestFirst []float64) string {
	if len(newestFirst) < 2 {
		return TrendStable
	}
	diff := newestFirst[0] - newestFirst[len(newestFirst)-1]
	switch {
	case diff > 0:
		return TrendImproving
	case diff < 0:
		return TrendWorsening
	default:
		return TrendStable
	}
}

func generalPrompt(d *GeneralInsightsData) string {
	return fmt.Sprintf(`Você é um analista educacional especializado em saúde mental de estudantes. Com base nos seguintes dados da plataforma IAeJovem:

- Total de alunos: %d
- Total de conversas: %d
- Score emocional médio: %.1f/10
- Alunos em situação de risco: %d

Forneça uma análise breve (máximo 150 palavras) com:
1. Avaliação geral do bem-estar emocional dos estudantes
2. Pontos de atenção principais
3. Recomendações práticas para a equipe pedagógica

Use uma linguagem profissional mas acessível.`,
		d.TotalStudents, d.TotalConversations, d.AverageScore, d.StudentsAtRisk)
}

func studentPrompt(d *StudentInsightsData) string {
	scores := make([]string, len(d.RecentScores))
	for i, sc := range d.RecentScores {
		scores[i] = fmt.Sprintf("%g", sc)
	}

	return fmt.Sprintf(`Você é um analista educacional especializado em saúde mental de estudantes. Analise o seguinte perfil do aluno:

- Nome: %s
- Matrícula: %s
- Total de conversas: %d
- Score emocional médio: %.1f/10
- Tendência: %s
- Scores recentes: %s

Forneça uma análise breve (máximo 150 palavras) com:
1. Avaliação do estado emocional atual
2. Identificação de padrões relevantes
3. Recomendações específicas de acompanhamento

Use uma linguagem profissional mas acessível.`,
		d.StudentName, d.StudentMatricula, d.TotalConversations, d.AverageScore, d.Trend, strings.Join(scores, ", "))
}
