package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/plateful/plateful/backend/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users         = flag.Int("users", cfg.NumUsers, "number of users to generate")
		follows       = flag.Int("follows", cfg.NumFollows, "number of follow edges to generate")
		votes         = flag.Int("votes", cfg.NumVotes, "number of votes to generate")
		popularChance = flag.Float64("popular-chance", cfg.PopularUserChance, "probability of attaching follows to already-followed users")
		specRate      = flag.Float64("specialization-rate", cfg.SpecializationRate, "fraction of users with cuisine specializations")
		upvoteChance  = flag.Float64("upvote-chance", cfg.UpvoteChance, "probability that a vote is an upvote")
		seed          = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir     = flag.String("output-dir", "data", "directory to write users.json, follows.json and votes.json")
		writeStdout   = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:           *users,
		NumFollows:         *follows,
		NumVotes:           *votes,
		PopularUserChance:  clampProbability(*popularChance),
		SpecializationRate: clampProbability(*specRate),
		UpvoteChance:       clampProbability(*upvoteChance),
		Seed:               *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d users, %d follows and %d votes into %s\n",
		len(dataset.Users), len(dataset.Follows), len(dataset.Votes), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
