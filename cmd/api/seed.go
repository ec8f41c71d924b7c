package main

import (
	"time"

	"github.com/google/uuid"

	"sobercircle/internal/messages"
	"sobercircle/internal/users"
)

// seedUsers returns demo members for local development. Their credentials are
// already expired, so every route behind the auth middleware still requires a
// real login.
func seedUsers() []users.User {
	now := time.Now().UTC()
	lastWeek := now.Add(-7 * 24 * time.Hour)

	return []users.User{
		{
			ID:             uuid.New(),
			ProviderUserID: "demo-ripple",
			Nickname:       "Ripple",
			SoberDays:      42,
			TotalRefusals:  9,
			CrisisCount:    3,
			LastCheckIn:    &lastWeek,
			CreatedAt:      now.Add(-60 * 24 * time.Hour),
			UpdatedAt:      lastWeek,
		},
		{
			ID:             uuid.New(),
			ProviderUserID: "demo-milestone",
			Nickname:       "Milestone",
			SoberDays:      17,
			TotalRefusals:  4,
			CrisisCount:    1,
			CreatedAt:      now.Add(-20 * 24 * time.Hour),
			UpdatedAt:      now.Add(-1 * 24 * time.Hour),
		},
		{
			ID:             uuid.New(),
			ProviderUserID: "demo-dawn",
			Nickname:       "Dawn",
			SoberDays:      3,
			CreatedAt:      now.Add(-3 * 24 * time.Hour),
			UpdatedAt:      now,
		},
	}
}

// seedMessages returns a starter feed so the dashboard is not empty on first run.
func seedMessages(members []users.User) []messages.Message {
	if len(members) == 0 {
		return nil
	}

	feed := []messages.Message{
		messages.New(members[0].ID, "Completed today's check-in, mood: steady", messages.TypeCheckIn, false),
		messages.New(members[0].ID, "Six weeks in. The evenings are finally getting easier.", messages.TypeEncouragement, false),
	}
	if len(members) > 1 {
		feed = append(feed,
			messages.New(members[1].ID, "Raised a crisis help request and needs everyone's support!", messages.TypeCrisis, false),
			messages.New(members[1].ID, "Resisted the temptation, well done!", messages.TypeEncouragement, false),
		)
	}
	return feed
}
