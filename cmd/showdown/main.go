package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hollowmoor/showdown/audit"
	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/conf"
	"github.com/hollowmoor/showdown/core/log"
	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/proficiency"
	"github.com/hollowmoor/showdown/session"
	"github.com/hollowmoor/showdown/variant"
)

var ConfigPath string = ""
var PrintConf bool = false

var Name string = "showdown"
var Version string = "unknown"
var GitCommit string = "unknown"
var BuildAt string = "unknown"

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println("version:", Version)
		fmt.Println("git commit:", GitCommit)
		fmt.Println("build at:", BuildAt)
	}

	app := &cli.App{
		Name:    Name,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       "",
				Destination: &ConfigPath,
			}, &cli.BoolFlag{
				Name:        "print-config",
				Destination: &PrintConf,
				Hidden:      true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "variants",
				Usage:  "list the registered variant engines",
				Action: listVariants,
			},
			{
				Name:  "simulate",
				Usage: "run seeded contests and print the outcomes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "variant", Value: variant.DrawPokerName},
					&cli.IntFlag{Name: "rounds", Aliases: []string{"n"}, Value: 10},
					&cli.Int64Flag{Name: "seed", Value: 0},
					&cli.IntFlag{Name: "level", Usage: "governing skill level for p1", Value: 0},
				},
				Action: simulate,
			},
			{
				Name:   "attest",
				Usage:  "verify an outcome attestation token",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "token", Required: true}},
				Action: attest,
			},
		},
	}
	app.Action = listVariants

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

func loadConf() *conf.Config {
	if ConfigPath == "" {
		return conf.DefaultConf
	}
	cfg, err := conf.ConfInit(ConfigPath, PrintConf)
	if err != nil {
		log.Warnf("config %s: %v, using defaults", ConfigPath, err)
		return conf.DefaultConf
	}
	log.SetLevel(cfg.Debug.LogLevel)
	return cfg
}

func listVariants(c *cli.Context) error {
	fmt.Println(strings.Join(variant.List(), "\n"))
	return nil
}

func simulate(c *cli.Context) error {
	cfg := loadConf()
	name := c.String("variant")
	rounds := c.Int("rounds")
	seed := c.Int64("seed")
	level := c.Int("level")

	rec := audit.NewMemory()
	wins := map[string]int{}
	draws := 0

	for i := 0; i < rounds; i++ {
		s := seed + int64(i)
		out, err := playRound(name, cfg, s, level, rec)
		if err != nil {
			return err
		}
		if out.Draw {
			draws++
		}
		for _, w := range out.WinnerIDs {
			wins[w]++
		}
		data, _ := json.Marshal(out)
		log.Infof("round %d: %s", i, string(data))
	}

	fmt.Printf("rounds=%d draws=%d wins=%v\n", rounds, draws, wins)
	return nil
}

func playRound(name string, cfg *conf.Config, seed int64, level int, rec audit.Recorder) (*outcome.Outcome, error) {
	opts := variant.RoundOptions{
		Participants: []session.ParticipantConfig{
			{ID: "p1", Profile: proficiency.Profile{"gambit": level}, GoverningSkill: "gambit"},
			{ID: "p2", Profile: proficiency.Profile{}, GoverningSkill: "gambit"},
		},
		Relevance:  proficiency.Relevance{"gambit": card.Spades},
		Bands:      cfg.Bands,
		Thresholds: cfg.Thresholds,
		Seed:       &seed,
		Recorder:   rec,
	}
	if vc, ok := cfg.Variants[name]; ok {
		opts.Conf = vc.Raw
	}
	if name == variant.CheckName {
		opts.Participants = opts.Participants[:1]
	}

	r, err := variant.NewRound(name, opts)
	if err != nil {
		return nil, err
	}

	// simulated players hold everything and take whatever comes
	switch rnd := r.(type) {
	case *variant.DrawPoker:
		holdAll(rnd.Session())
	case *variant.Duel:
		holdAll(rnd.Session())
	case *variant.Blackjack:
		simulateBlackjack(rnd)
	case *variant.PressLuck:
		simulatePressLuck(rnd)
	case *variant.DeckBuilder:
		simulateDeckBuilder(rnd)
	}
	if !r.Terminal() {
		if err := r.Expire(); err != nil {
			return nil, err
		}
	}
	return r.Outcome(), nil
}

func holdAll(s *session.Session) {
	for _, pid := range []string{"p1", "p2"} {
		if err := s.Commit(pid, []int{0, 1, 2, 3, 4}); err != nil {
			log.Warnf("commit %s: %v", pid, err)
		}
	}
}

func simulateBlackjack(b *variant.Blackjack) {
	for _, pid := range []string{"p1", "p2"} {
		for {
			sum, bust, err := b.Sum(pid)
			if err != nil || bust || sum >= 17 {
				break
			}
			if _, err := b.Hit(pid); err != nil {
				break
			}
		}
		if err := b.Stand(pid); err != nil {
			log.Debugf("stand %s: %v", pid, err)
		}
	}
}

func simulatePressLuck(pl *variant.PressLuck) {
	for _, pid := range []string{"p1", "p2"} {
		for i := 0; i < 4; i++ {
			if _, err := pl.Press(pid); err != nil {
				break
			}
		}
		if err := pl.Bank(pid); err != nil {
			log.Debugf("bank %s: %v", pid, err)
		}
	}
}

func simulateDeckBuilder(db *variant.DeckBuilder) {
	// a lazy builder: top half of every suit
	build := []card.Card{}
	for _, c := range card.All() {
		if c.Rank >= card.Rank(9) {
			build = append(build, c)
		}
	}
	for _, pid := range []string{"p1", "p2"} {
		if err := db.Assemble(pid, build); err != nil {
			log.Warnf("assemble %s: %v", pid, err)
		}
	}
}

func attest(c *cli.Context) error {
	cfg := loadConf()
	if cfg.AttestKey == "" {
		return fmt.Errorf("no attestation key configured")
	}
	claims, err := audit.VerifyOutcome(c.String("token"), []byte(cfg.AttestKey))
	if err != nil {
		return err
	}
	data, _ := json.MarshalIndent(claims, "", "  ")
	fmt.Println(string(data))
	return nil
}
