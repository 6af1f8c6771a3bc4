// Seeds the database with fake users, threads, posts, votes and follows for
// local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/crypto/bcrypt"

	"github.com/loopinhq/loopin/internal/database"
	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

func main() {
	users := flag.Int("users", 10, "number of users to create")
	threads := flag.Int("threads", 25, "number of threads to create")
	flag.Parse()

	db := database.New()
	defer db.Close()
	st := store.NewDB(db.GetDB())
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hashing seed password: %v", err)
	}

	var profiles []models.Profile
	for i := 0; i < *users; i++ {
		name := gofakeit.Username()
		profile := models.Profile{
			Email:       gofakeit.Email(),
			Password:    string(hashed),
			DisplayName: &name,
			Role:        models.RoleUser,
		}
		if i == 0 {
			profile.Role = models.RoleAdmin
		}
		if err := st.CreateProfile(ctx, &profile); err != nil {
			log.Fatalf("seeding profile: %v", err)
		}
		profiles = append(profiles, profile)
	}
	fmt.Printf("created %d profiles (password: password123)\n", len(profiles))

	categoryIDs := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		categoryIDs[i] = c.ID
	}

	var threadIDs []string
	for i := 0; i < *threads; i++ {
		author := profiles[rand.Intn(len(profiles))]
		category := categoryIDs[rand.Intn(len(categoryIDs))]
		thread := models.Thread{
			Title:       gofakeit.Sentence(6),
			Content:     gofakeit.Paragraph(2, 4, 12, " "),
			UserID:      author.ID,
			IsAnonymous: rand.Intn(10) == 0,
			Category:    &category,
			Tags:        []string{gofakeit.BuzzWord(), gofakeit.BuzzWord()},
			IsPinned:    i == 0,
		}
		if err := st.CreateThread(ctx, &thread); err != nil {
			log.Fatalf("seeding thread: %v", err)
		}
		threadIDs = append(threadIDs, thread.ID)

		for p := 0; p < rand.Intn(6); p++ {
			replier := profiles[rand.Intn(len(profiles))]
			post := models.Post{
				ThreadID:    thread.ID,
				Content:     gofakeit.Sentence(12),
				UserID:      replier.ID,
				IsAnonymous: rand.Intn(10) == 0,
			}
			if err := st.CreatePost(ctx, &post); err != nil {
				log.Fatalf("seeding post: %v", err)
			}
		}
	}
	fmt.Printf("created %d threads\n", len(threadIDs))

	votes, follows := 0, 0
	for _, threadID := range threadIDs {
		for _, profile := range profiles {
			if rand.Intn(3) == 0 {
				voteType := 1
				if rand.Intn(4) == 0 {
					voteType = -1
				}
				if err := st.CreateVote(ctx, profile.ID, store.Target{ThreadID: threadID}, voteType); err != nil {
					log.Fatalf("seeding vote: %v", err)
				}
				votes++
			}
			if rand.Intn(5) == 0 {
				if err := st.CreateFollow(ctx, profile.ID, threadID); err != nil {
					log.Fatalf("seeding follow: %v", err)
				}
				follows++
			}
		}
	}
	fmt.Printf("created %d votes and %d follows\n", votes, follows)
}
