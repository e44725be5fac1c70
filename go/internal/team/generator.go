package team

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
)

// Squad composition is fixed: 3 goalkeepers, 6 defenders, 6 midfielders,
// 5 forwards, 20 players total.
var squadComposition = []struct {
	position models.Position
	count    int
}{
	{models.PositionGoalkeeper, 3},
	{models.PositionDefender, 6},
	{models.PositionMidfielder, 6},
	{models.PositionForward, 5},
}

// GeneratedSquadSize is the number of players every new team starts with.
const GeneratedSquadSize = 20

var namePools = map[models.Position][]string{
	models.PositionGoalkeeper: {
		"David De Gea", "Alisson Becker", "Ederson",
		"Thibaut Courtois", "Marc-André ter Stegen",
	},
	models.PositionDefender: {
		"Virgil van Dijk", "Rúben Dias", "Sergio Ramos",
		"Kalidou Koulibaly", "Marquinhos", "Aymeric Laporte",
	},
	models.PositionMidfielder: {
		"Kevin De Bruyne", "Luka Modrić", "Toni Kroos",
		"Frenkie de Jong", "Jorginho", "N'Golo Kanté",
	},
	models.PositionForward: {
		"Lionel Messi", "Cristiano Ronaldo", "Kylian Mbappé",
		"Erling Haaland", "Robert Lewandowski",
	},
}

// Generator produces randomized starting squads. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Squad generates the full 20-player starting squad for a team. Names are
// assigned round-robin from fixed per-position pools and may repeat when a
// pool is smaller than the position's count.
func (g *Generator) Squad(teamID uuid.UUID) []models.Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	players := make([]models.Player, 0, GeneratedSquadSize)
	for _, slot := range squadComposition {
		pool := namePools[slot.position]
		for i := 0; i < slot.count; i++ {
			overall := models.MinPlayerOverall + g.rng.Intn(models.MaxPlayerOverall-models.MinPlayerOverall+1)
			players = append(players, models.Player{
				ID:       uuid.New(),
				TeamID:   teamID,
				Name:     pool[i%len(pool)],
				Position: slot.position,
				Age:      models.MinPlayerAge + g.rng.Intn(models.MaxPlayerAge-models.MinPlayerAge+1),
				Overall:  overall,
				Value:    int64(overall)*models.ValuePerOverall + g.rng.Int63n(models.ValueBonusRange),
			})
		}
	}
	return players
}

// TeamName derives a team's display name from its owner's email:
// the local part plus " FC".
func TeamName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		local = email
	}
	return local + " FC"
}
