package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongodoc "github.com/veredix/lead-relay/internal/infrastructure/mongo"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

type seedOptions struct {
	leadCount       int
	notifiedCount   int
	failedCount     int
	dropCollections bool
	randomSeed      int64
}

type collections struct {
	leads  string
	failed string
}

type leadMeta struct {
	ID        primitive.ObjectID
	Details   notifdomain.Details
	CreatedAt time.Time
	Notified  bool
}

func main() {
	opts := parseFlags()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := collections{
		leads:  envOrDefault("LEADS_COLLECTION", "leads"),
		failed: envOrDefault("FAILED_COLLECTION", "failed_notifications"),
	}

	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "lead_relay")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)

	if opts.dropCollections {
		if err := dropCollections(ctx, db, cfg); err != nil {
			log.Fatalf("failed to drop collections: %v", err)
		}
		log.Printf("dropped existing collections")
	}

	if err := ensureIndexes(ctx, db, cfg); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))

	leadDocs, metas := generateLeads(rng, opts.leadCount, opts.notifiedCount)
	if len(leadDocs) == 0 {
		log.Fatal("no lead docs were generated")
	}
	if err := insertMany(ctx, db.Collection(cfg.leads), toAnySlice(leadDocs)); err != nil {
		log.Fatalf("failed to insert leads: %v", err)
	}

	failedDocs := generateFailedDispatches(rng, metas, opts.failedCount)
	if len(failedDocs) > 0 {
		if err := insertMany(ctx, db.Collection(cfg.failed), toAnySlice(failedDocs)); err != nil {
			log.Fatalf("failed to insert failed dispatches: %v", err)
		}
	}

	log.Printf("seed done: leads=%d notified=%d failedDispatches=%d",
		len(leadDocs), opts.notifiedCount, len(failedDocs))
	log.Printf("Mongo: %s / %s (seed=%d)", mongoURI, dbName, opts.randomSeed)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.IntVar(&opts.leadCount, "count", 20, "number of leads to generate")
	flag.IntVar(&opts.notifiedCount, "notified", 8, "how many leads are marked as already notified")
	flag.IntVar(&opts.failedCount, "failed", 2, "number of failed dispatch records to generate")
	flag.BoolVar(&opts.dropCollections, "drop", true, "drop existing collections before inserting")
	defaultSeed := time.Now().UnixNano()
	flag.Int64Var(&opts.randomSeed, "seed", defaultSeed, "random seed (for reproducible runs)")
	flag.Parse()

	if opts.leadCount <= 0 {
		log.Fatal("count must be at least 1")
	}
	if opts.notifiedCount > opts.leadCount {
		opts.notifiedCount = opts.leadCount
	}
	if opts.notifiedCount < 0 {
		opts.notifiedCount = 0
	}
	if opts.failedCount < 0 {
		opts.failedCount = 0
	}
	return opts
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func dropCollections(ctx context.Context, db *mongo.Database, cfg collections) error {
	for _, name := range []string{cfg.leads, cfg.failed} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			// Drop also errors when the collection does not exist yet.
			log.Printf("WARN: failed to drop collection %s: %v", name, err)
		}
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, cfg collections) error {
	leadIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_lead_created"),
		},
		{
			Keys:    bson.D{{Key: "wasNotified", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_lead_notified_created"),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetName("idx_lead_session").SetSparse(true),
		},
	}
	if _, err := db.Collection(cfg.leads).Indexes().CreateMany(ctx, leadIndexes); err != nil {
		return err
	}

	if _, err := db.Collection(cfg.failed).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_failed_status_created"),
		},
	}); err != nil {
		return err
	}

	return nil
}

func generateLeads(rng *rand.Rand, count, notified int) ([]mongodoc.LeadDocument, []leadMeta) {
	now := time.Now().UTC()
	docs := make([]mongodoc.LeadDocument, 0, count)
	metas := make([]leadMeta, 0, count)

	for i := 0; i < count; i++ {
		name := randomName(rng)
		area := legalAreas[rng.Intn(len(legalAreas))]
		situation := situations[rng.Intn(len(situations))]
		phone := randomPhone(rng)

		hasPhone := i%5 != 4
		details := notifdomain.Details{Name: name, Area: area, Situation: situation, Phone: phone}
		if !hasPhone {
			details.Phone = "not informed"
		}

		createdAt := now.Add(-time.Duration(rng.Intn(60*24)) * time.Hour)
		doc := mongodoc.LeadDocument{
			ID:        primitive.NewObjectID(),
			Answers:   buildAnswers(i, name, area, situation, phone, hasPhone),
			Source:    sources[rng.Intn(len(sources))],
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		if doc.Source == "whatsapp" {
			doc.SessionID = "whatsapp_55" + digits(rng, 11)
		} else if doc.Source == "web" {
			doc.SessionID = fmt.Sprintf("web_%d", createdAt.UnixMilli())
		}

		isNotified := i < notified
		if isNotified {
			notifiedAt := createdAt.Add(time.Duration(1+rng.Intn(10)) * time.Minute)
			doc.WasNotified = true
			doc.NotifiedAt = &notifiedAt
			result := buildNotificationResult(rng, doc.ID.Hex(), notifiedAt)
			doc.NotificationResult = &result
			doc.UpdatedAt = notifiedAt
		}

		docs = append(docs, doc)
		metas = append(metas, leadMeta{ID: doc.ID, Details: details, CreatedAt: createdAt, Notified: isNotified})
	}

	return docs, metas
}

// buildAnswers alternates between the positional id convention and
// explicitly named fields so both extraction paths see data.
func buildAnswers(i int, name, area, situation, phone string, hasPhone bool) []mongodoc.AnswerDocument {
	if i%3 == 2 {
		answers := []mongodoc.AnswerDocument{
			{ID: 7, Field: "name", Answer: name},
			{ID: 8, Field: "area", Answer: area},
			{ID: 9, Field: "situation", Answer: situation},
		}
		if hasPhone {
			answers = append(answers, mongodoc.AnswerDocument{ID: 10, Field: "phone", Answer: phone})
		}
		return answers
	}

	answers := []mongodoc.AnswerDocument{
		{ID: 1, Answer: name},
		{ID: 2, Answer: area},
		{ID: 3, Answer: situation},
	}
	if hasPhone {
		answers = append(answers, mongodoc.AnswerDocument{ID: 4, Answer: phone})
	}
	return answers
}

func buildNotificationResult(rng *rand.Rand, leadID string, at time.Time) mongodoc.DispatchResultDocument {
	results := []mongodoc.RecipientResultDocument{
		{Name: "Marcos", Phone: "5511999999999@s.whatsapp.net", Success: true, Timestamp: at},
		{Name: "Paula", Phone: "5511988887777@s.whatsapp.net", Success: true, Timestamp: at},
	}
	sent := len(results)

	// Roughly a third of the seeded dispatches only reached part of the
	// team, which is what the review screens filter for.
	partial := rng.Intn(3) == 0
	if partial {
		results[1].Success = false
		results[1].Error = "gateway responded 502: upstream unavailable"
		sent--
	}

	doc := mongodoc.DispatchResultDocument{
		Success:           sent > 0,
		NotificationsSent: sent,
		TotalRecipients:   len(results),
		Results:           results,
		LeadID:            leadID,
		Timestamp:         at,
	}
	if partial {
		doc.Reason = string(notifdomain.ReasonPartialFailure)
	}
	return doc
}

func generateFailedDispatches(rng *rand.Rand, metas []leadMeta, count int) []mongodoc.FailedDispatchDocument {
	docs := make([]mongodoc.FailedDispatchDocument, 0, count)
	for _, meta := range metas {
		if len(docs) >= count {
			break
		}
		if meta.Notified {
			continue
		}

		createdAt := meta.CreatedAt.Add(time.Duration(1+rng.Intn(5)) * time.Minute)
		doc := mongodoc.FailedDispatchDocument{
			ID:          primitive.NewObjectID(),
			LeadID:      meta.ID.Hex(),
			Stage:       notifdomain.StageFanout,
			Payload:     notifdomain.FormatAlert(meta.ID.Hex(), meta.Details, meta.CreatedAt),
			Error:       "no recipient accepted the message",
			Attempts:    1 + rng.Intn(3),
			Status:      "pending",
			CreatedAt:   createdAt,
			LastTriedAt: createdAt.Add(time.Duration(rng.Intn(30)) * time.Minute),
		}
		if len(docs) == 1 {
			doc.Stage = notifdomain.StageCommit
			doc.Error = "mark notified: context deadline exceeded"
		}
		docs = append(docs, doc)
	}
	return docs
}

func randomName(rng *rand.Rand) string {
	return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
}

func randomPhone(rng *rand.Rand) string {
	ddd := areaCodes[rng.Intn(len(areaCodes))]
	number := fmt.Sprintf("9%s-%s", digits(rng, 4), digits(rng, 4))
	switch rng.Intn(3) {
	case 0:
		return fmt.Sprintf("(%s) %s", ddd, number)
	case 1:
		return fmt.Sprintf("+55 %s %s", ddd, number)
	default:
		return strings.NewReplacer("-", "", " ", "").Replace(ddd + number)
	}
}

func digits(rng *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d", rng.Intn(10))
	}
	return b.String()
}

func insertMany(ctx context.Context, col *mongo.Collection, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}

func toAnySlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}

var firstNames = []string{
	"Ana", "Bruno", "Carla", "Diego", "Elisa", "Felipe", "Gabriela", "Henrique",
	"Isabela", "João", "Larissa", "Marcos", "Natália", "Otávio", "Paula", "Rafael",
}

var lastNames = []string{
	"Almeida", "Barbosa", "Cardoso", "Duarte", "Ferreira", "Gomes", "Lima",
	"Martins", "Nogueira", "Oliveira", "Pereira", "Ribeiro", "Santos", "Souza",
}

var legalAreas = []string{
	"Criminal law", "Family law", "Labor law", "Consumer law",
	"Civil law", "Social security", "Tax law", "Real estate",
}

var situations = []string{
	"I was dismissed last week without receiving severance pay and my former employer stopped answering my calls.",
	"My landlord wants to raise the rent in the middle of the contract and is threatening eviction if I refuse.",
	"I bought a car that turned out to have hidden engine damage and the dealership refuses to take it back.",
	"My ex-partner moved to another city with our daughter and I have not been able to see her for two months.",
	"A store charged my credit card twice for the same purchase and support keeps transferring me between departments.",
	"I was stopped by the police and charged with something I did not do, the hearing is scheduled for next month.",
	"The retirement request I filed over a year ago is still under review and nobody can tell me why it is taking so long.",
	"After the renovation next door my apartment wall cracked from floor to ceiling, the construction company denies any responsibility, the building insurance refuses to cover it, and the condominium administrator says the dispute is between neighbors only, so nothing has moved for six months while the crack keeps growing.",
}

var sources = []string{"whatsapp", "web", "seed"}

var areaCodes = []string{"11", "21", "31", "41", "47", "51", "61", "71", "81", "85"}
