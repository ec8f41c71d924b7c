package crisis

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"sobercircle/internal/messages"
	"sobercircle/internal/users"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, soberDays int) (*users.InMemoryRepository, *users.User) {
	t.Helper()

	now := time.Now().UTC()
	user := users.User{
		ID:             uuid.New(),
		ProviderUserID: "u1",
		Nickname:       "Alice",
		Credential: users.Credential{
			AccessToken:  "tok1",
			RefreshToken: "ref1",
			ExpiresAt:    now.Add(time.Hour),
		},
		SoberDays: soberDays,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return users.NewInMemoryRepository([]users.User{user}), &user
}

func TestRaisePublishesCrisisAndEncouragement(t *testing.T) {
	userRepo, user := seedUser(t, 10)
	feed := messages.NewInMemoryRepository(nil)
	svc := NewService(NewInMemoryRepository(), userRepo, feed, nil, testLogger())

	created, responses, err := svc.Raise(context.Background(), user)
	if err != nil {
		t.Fatalf("Raise returned error: %v", err)
	}
	if created.Resolved {
		t.Fatal("a fresh crisis must be unresolved")
	}
	if created.ResponseCount != 0 {
		t.Fatalf("a fresh crisis starts with zero responses, got %d", created.ResponseCount)
	}
	if len(responses) != len(encouragements) {
		t.Fatalf("expected %d encouragement messages, got %d", len(encouragements), len(responses))
	}
	for _, message := range responses {
		if message.MessageType != messages.TypeEncouragement || !message.AIGenerated {
			t.Fatalf("unexpected encouragement message: %+v", message)
		}
	}

	stored, _ := userRepo.FindByID(context.Background(), user.ID)
	if stored.CrisisCount != 1 {
		t.Fatalf("expected crisis count 1, got %d", stored.CrisisCount)
	}

	all, _ := feed.ListRecent(context.Background(), user.ID, 10)
	if len(all) != len(encouragements)+1 {
		t.Fatalf("expected crisis message plus encouragement in feed, got %d messages", len(all))
	}
}

func TestResolveSuccessBumpsRefusals(t *testing.T) {
	userRepo, user := seedUser(t, 10)
	feed := messages.NewInMemoryRepository(nil)
	repo := NewInMemoryRepository()
	svc := NewService(repo, userRepo, feed, nil, testLogger())

	if _, _, err := svc.Raise(context.Background(), user); err != nil {
		t.Fatalf("Raise returned error: %v", err)
	}
	if err := svc.Resolve(context.Background(), user, true); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	stored, _ := userRepo.FindByID(context.Background(), user.ID)
	if stored.TotalRefusals != 1 {
		t.Fatalf("expected refusal count 1, got %d", stored.TotalRefusals)
	}
	if stored.SoberDays != 10 {
		t.Fatalf("a resisted crisis must not touch the streak, got %d", stored.SoberDays)
	}

	open, _ := repo.FindLatestUnresolved(context.Background(), user.ID)
	if open != nil {
		t.Fatalf("expected no open crisis after resolution, got %+v", open)
	}
}

func TestResolveRelapseResetsStreak(t *testing.T) {
	userRepo, user := seedUser(t, 10)
	svc := NewService(NewInMemoryRepository(), userRepo, messages.NewInMemoryRepository(nil), nil, testLogger())

	if _, _, err := svc.Raise(context.Background(), user); err != nil {
		t.Fatalf("Raise returned error: %v", err)
	}
	if err := svc.Resolve(context.Background(), user, false); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	stored, _ := userRepo.FindByID(context.Background(), user.ID)
	if stored.SoberDays != 0 {
		t.Fatalf("expected streak reset to 0, got %d", stored.SoberDays)
	}
	if stored.TotalRefusals != 0 {
		t.Fatalf("a relapse must not count as a refusal, got %d", stored.TotalRefusals)
	}
}

func TestResolveWithoutOpenCrisisStillRecordsOutcome(t *testing.T) {
	userRepo, user := seedUser(t, 3)
	svc := NewService(NewInMemoryRepository(), userRepo, messages.NewInMemoryRepository(nil), nil, testLogger())

	if err := svc.Resolve(context.Background(), user, true); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	stored, _ := userRepo.FindByID(context.Background(), user.ID)
	if stored.TotalRefusals != 1 {
		t.Fatalf("expected refusal recorded even without an open crisis, got %d", stored.TotalRefusals)
	}
}

func TestResolveMarksOnlyLatestUnresolved(t *testing.T) {
	userRepo, user := seedUser(t, 3)
	repo := NewInMemoryRepository()
	svc := NewService(repo, userRepo, messages.NewInMemoryRepository(nil), nil, testLogger())

	first, _, err := svc.Raise(context.Background(), user)
	if err != nil {
		t.Fatalf("Raise returned error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, _, err := svc.Raise(context.Background(), user); err != nil {
		t.Fatalf("Raise returned error: %v", err)
	}

	if err := svc.Resolve(context.Background(), user, true); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	open, _ := repo.FindLatestUnresolved(context.Background(), user.ID)
	if open == nil || open.ID != first.ID {
		t.Fatalf("expected the older crisis to remain open, got %+v", open)
	}
}
