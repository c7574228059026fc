package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/models"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestNewTextGenerator(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AIConfig
		wantErr  error
		wantType string
	}{
		{"openai without key", config.AIConfig{Provider: "openai"}, ErrInsightsUnavailable, ""},
		{"anthropic without key", config.AIConfig{Provider: "anthropic"}, ErrInsightsUnavailable, ""},
		{"ollama without key", config.AIConfig{Provider: "ollama"}, nil, "*services.ollamaGenerator"},
		{"openai", config.AIConfig{Provider: "openai", APIKey: "k"}, nil, "*services.openAIGenerator"},
		{"unknown falls back to openai compatible", config.AIConfig{Provider: "deepseek", APIKey: "k"}, nil, "*services.openAIGenerator"},
		{"azure", config.AIConfig{Provider: "azure", APIKey: "k"}, nil, "*services.openAIGenerator"},
		{"anthropic", config.AIConfig{Provider: "Anthropic", APIKey: "k"}, nil, "*services.anthropicGenerator"},
		{"gemini", config.AIConfig{Provider: "gemini", APIKey: "k"}, nil, "*services.geminiGenerator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewTextGenerator(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewTextGenerator() error = %v, expected %v", err, tt.wantErr)
			}
			if tt.wantType == "" {
				return
			}
			if got := fmt.Sprintf("%T", gen); got != tt.wantType {
				t.Errorf("generator type = %s, expected %s", got, tt.wantType)
			}
		})
	}
}

func TestScoreTrend(t *testing.T) {
	tests := []struct {
		scores   []float64
		expected string
	}{
		{nil, TrendStable},
		{[]float64{5}, TrendStable},
		{[]float64{8, 6, 4}, TrendImproving},
		{[]float64{3, 6, 9}, TrendWorsening},
		{[]float64{6, 2, 6}, TrendStable},
	}
	for _, tt := range tests {
		if got := scoreTrend(tt.scores); got != tt.expected {
			t.Errorf("scoreTrend(%v) = %q, expected %q", tt.scores, got, tt.expected)
		}
	}
}

func TestInsightsService_General(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ana := createUser(t, db, "ana", "Ana", models.RoleStudent, 0)
	bia := createUser(t, db, "bia", "Bia", models.RoleStudent, 0)
	createUser(t, db, "adm", "Admin", models.RoleAdmin, 0)

	records := []struct {
		user  uint
		score float64
		at    time.Time
	}{
		{ana.ID, 2, now.Add(-24 * time.Hour)},
		{ana.ID, 3, now.Add(-48 * time.Hour)},
		{bia.ID, 8, now.Add(-24 * time.Hour)},
		{bia.ID, 1, now.AddDate(0, 0, -20)},
	}
	for _, r := range records {
		conv := &models.Conversation{UserID: r.user, Score: r.score, Duration: 60, CreatedAt: r.at}
		db.Create(conv)
		db.Create(&models.ScoreRecord{UserID: r.user, ConversationID: conv.ID, Score: r.score, CreatedAt: r.at})
	}

	gen := &fakeGenerator{reply: "Tudo certo."}
	svc := NewInsightsService(db, gen)
	svc.now = fixedClock(now)

	result, err := svc.Generate(context.Background(), InsightsRequest{Type: InsightsGeneral})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Insights != "Tudo certo." {
		t.Errorf("Insights = %q", result.Insights)
	}

	data, ok := result.Data.(*GeneralInsightsData)
	if !ok {
		t.Fatalf("Data type = %T", result.Data)
	}
	if data.TotalStudents != 2 || data.TotalConversations != 4 || data.AverageScore != 3.5 || data.StudentsAtRisk != 1 {
		t.Errorf("data = %+v", data)
	}
	if !strings.Contains(gen.prompt, "Alunos em situação de risco: 1") || !strings.Contains(gen.prompt, "3.5/10") {
		t.Errorf("prompt missing figures:\n%s", gen.prompt)
	}
}

func TestInsightsService_Student(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ana := &models.User{Username: "ana", Name: "Ana Souza", Matricula: "2024001", Role: models.RoleStudent}
	db.Create(ana)

	for i, score := range []float64{4, 5, 7} { // oldest first
		at := now.AddDate(0, 0, i-3)
		conv := &models.Conversation{UserID: ana.ID, Score: score, Duration: 60, CreatedAt: at}
		db.Create(conv)
		db.Create(&models.ScoreRecord{UserID: ana.ID, ConversationID: conv.ID, Score: score, CreatedAt: at})
	}

	gen := &fakeGenerator{reply: "  "}
	svc := NewInsightsService(db, gen)
	svc.now = fixedClock(now)

	result, err := svc.Generate(context.Background(), InsightsRequest{Type: InsightsStudent, StudentID: ana.ID})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Insights != insightsFallbackReply {
		t.Errorf("blank reply should fall back, got %q", result.Insights)
	}

	data := result.Data.(*StudentInsightsData)
	if data.Trend != TrendImproving || data.AverageScore != 5.3 || data.TotalConversations != 3 {
		t.Errorf("data = %+v", data)
	}
	if len(data.RecentScores) != 3 || data.RecentScores[0] != 7 {
		t.Errorf("RecentScores = %v, expected newest first", data.RecentScores)
	}
	if !strings.Contains(gen.prompt, "Matrícula: 2024001") || !strings.Contains(gen.prompt, "Scores recentes: 7, 5, 4") {
		t.Errorf("prompt missing student data:\n%s", gen.prompt)
	}
}

func TestInsightsService_Errors(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "prof", "Prof", models.RoleTeacher, 0)
	ctx := context.Background()

	withGen := NewInsightsService(db, &fakeGenerator{reply: "ok"})
	tests := []struct {
		name    string
		svc     *InsightsService
		req     InsightsRequest
		wantErr error
	}{
		{"unknown type", withGen, InsightsRequest{Type: "weekly"}, ErrValidation},
		{"student without id", withGen, InsightsRequest{Type: InsightsStudent}, ErrValidation},
		{"not a student", withGen, InsightsRequest{Type: InsightsStudent, StudentID: teacher.ID}, ErrNotFound},
		{"no generator", NewInsightsService(db, nil), InsightsRequest{Type: InsightsGeneral}, ErrInsightsUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.svc.Generate(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}

	failing := NewInsightsService(db, &fakeGenerator{err: errors.New("rate limited")})
	if _, err := failing.Generate(ctx, InsightsRequest{Type: InsightsGeneral}); err == nil {
		t.Error("generator failure should surface")
	}
}
