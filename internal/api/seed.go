package api

import (
	"context"

	"github.com/feliciasalim/PPL/internal/model"
)

var seedArticles = []model.Article{
	{
		Title: "Understanding Stress and How It Affects You",
		Link:  "https://www.verywellmind.com/stress-and-health-3145086",
		Image: "https://images.curhat.id/articles/stress-basics.jpg",
		Intro: "Stress is the body's response to pressure. Learning to recognize it early is the first step toward managing it.",
	},
	{
		Title: "Simple Breathing Exercises for Anxious Moments",
		Link:  "https://www.healthline.com/health/breathing-exercise",
		Image: "https://images.curhat.id/articles/breathing.jpg",
		Intro: "Slow, deliberate breathing calms the nervous system in minutes and can be done anywhere.",
	},
	{
		Title: "Why Journaling Helps Your Mental Health",
		Link:  "https://www.apa.org/topics/journaling-mental-health",
		Image: "https://images.curhat.id/articles/journaling.jpg",
		Intro: "Putting feelings into words lowers their intensity and makes patterns visible over time.",
	},
	{
		Title: "Sleep and Mood: The Connection You Should Not Ignore",
		Link:  "https://www.sleepfoundation.org/mental-health",
		Image: "https://images.curhat.id/articles/sleep.jpg",
		Intro: "Poor sleep amplifies stress and irritability. A steady routine protects both rest and mood.",
	},
	{
		Title: "When and How to Seek Professional Help",
		Link:  "https://www.who.int/health-topics/mental-health",
		Image: "https://images.curhat.id/articles/help.jpg",
		Intro: "Venting helps, but some burdens need a professional. Here is how to take that step.",
	},
}

// SeedArticles fills the articles table on first boot. Existing rows win;
// the seed never overwrites edits made directly in the database.
func (s *Server) SeedArticles(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Article{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&seedArticles).Error
}
