package optimization

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/internal/monitoring"
	"github.com/ducminhle1904/transit-ga/pkg/network"
)

// PopulationConfig holds the engine parameters that are not collaborators
type PopulationConfig struct {
	Name          string
	Cutoff        CutoffSchedule
	Workers       int
	BreedAttempts int
}

// Population owns the chromosomes and drives the generational loop:
// evaluate, keep the elite, breed replacements.
type Population struct {
	chromosomes []*Chromosome
	size        int
	fitness     FitnessEvaluator
	breeder     Breeder
	rng         *rand.Rand
	cfg         PopulationConfig
	log         Logger

	generation   int
	roundFitness map[int]Fitness
	rounds       []RoundMetrics
	errStats     *errors.ErrorStats
	onRound      func(RoundMetrics)
}

// NewPopulation creates a population over chromosomes. rng drives every
// stochastic decision of the engine and the breeder.
func NewPopulation(chromosomes []*Chromosome, fitness FitnessEvaluator, breeder Breeder, rng *rand.Rand, cfg PopulationConfig, log Logger) (*Population, error) {
	if len(chromosomes) == 0 {
		return nil, errors.NewEmptyPoolError("population", "new")
	}
	if fitness == nil || breeder == nil || rng == nil {
		return nil, errors.NewConfigurationError("population", "new", "fitness, breeder and rng are required")
	}
	if cfg.Cutoff == nil {
		cfg.Cutoff = ConstantCutoff(DefaultCutoff)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BreedAttempts <= 0 {
		cfg.BreedAttempts = DefaultBreedAttempts
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &Population{
		chromosomes:  chromosomes,
		size:         len(chromosomes),
		fitness:      fitness,
		breeder:      breeder,
		rng:          rng,
		cfg:          cfg,
		log:          orNop(log),
		generation:   1,
		roundFitness: make(map[int]Fitness),
		errStats:     errors.NewErrorStats(20),
	}, nil
}

// Name returns the run name used to label metrics
func (p *Population) Name() string { return p.cfg.Name }

// Size returns the configured population size
func (p *Population) Size() int { return p.size }

// Generation returns the 1-based generation the next Advance will run
func (p *Population) Generation() int { return p.generation }

// Chromosomes returns the current members. Callers must not modify the slice.
func (p *Population) Chromosomes() []*Chromosome { return p.chromosomes }

// Rounds returns the accumulated metrics log
func (p *Population) Rounds() []RoundMetrics { return p.rounds }

// ErrorStats returns the recoverable errors seen so far
func (p *Population) ErrorStats() *errors.ErrorStats { return p.errStats }

// OnRound registers fn to be called after each generation completed by Run
func (p *Population) OnRound(fn func(RoundMetrics)) { p.onRound = fn }

// RoundFitness returns the fitness recorded for a round index in the latest round
func (p *Population) RoundFitness(index int) (Fitness, bool) {
	f, ok := p.roundFitness[index]
	return f, ok
}

// Best returns the evaluated chromosome with the highest fitness
func (p *Population) Best() (*Chromosome, bool) {
	var best *Chromosome
	for _, c := range p.chromosomes {
		if _, ok := c.Fitness(); !ok {
			continue
		}
		if best == nil || c.Score() > best.Score() {
			best = c
		}
	}
	return best, best != nil
}

// Evaluate assigns round indices, scores chromosomes without a cached fitness
// in parallel, and appends the round's statistics to the metrics log.
func (p *Population) Evaluate(ctx context.Context) (RoundMetrics, error) {
	p.roundFitness = make(map[int]Fitness, len(p.chromosomes))

	var pending []*Chromosome
	for i, c := range p.chromosomes {
		c.RoundIndex = i
		if _, ok := c.Fitness(); !ok {
			pending = append(pending, c)
		}
	}

	if err := p.evaluateParallel(ctx, pending); err != nil {
		return RoundMetrics{}, err
	}
	monitoring.RecordEvaluations(p.cfg.Name, len(pending))

	all := make([]Fitness, 0, len(p.chromosomes))
	for _, c := range p.chromosomes {
		f, _ := c.Fitness()
		if _, dup := p.roundFitness[c.RoundIndex]; dup {
			p.log.Warning("Duplicate round index %d in generation %d, overwriting fitness", c.RoundIndex, p.generation)
			p.errStats.RecordError(errors.NewDuplicateIdentityError("population", "evaluate",
				fmt.Sprintf("round index %d", c.RoundIndex)))
		}
		p.roundFitness[c.RoundIndex] = f
		all = append(all, f)
	}

	round := RoundMetrics{
		Generation: p.generation,
		BestIndex:  -1,
		Stats:      summarizeRound(all),
		Evaluated:  len(pending),
	}
	for _, c := range p.chromosomes {
		if round.BestIndex < 0 || c.Score() > round.BestFitness {
			round.BestIndex = c.RoundIndex
			round.BestID = c.ID
			round.BestFitness = c.Score()
		}
	}

	p.rounds = append(p.rounds, round)
	monitoring.RecordRound(p.cfg.Name, p.generation, round.BestFitness, round.Stats[ComponentFitness].Mean)
	p.log.Debug("Generation %d evaluated: %d scored, best %.4f (%s)", p.generation, len(pending), round.BestFitness, round.BestID)
	return round, nil
}

func (p *Population) evaluateParallel(ctx context.Context, pending []*Chromosome) error {
	if len(pending) == 0 {
		return nil
	}

	wp := pool.New().
		WithMaxGoroutines(p.cfg.Workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for _, c := range pending {
		c := c
		wp.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := p.fitness.Evaluate(c.Network)
			if err != nil {
				return fmt.Errorf("failed to evaluate %s: %w", c.ID, err)
			}
			c.SetFitness(f)
			return nil
		})
	}

	return wp.Wait()
}

// Advance runs one generation: evaluate, keep the top k = round(cutoff x size)
// chromosomes and breed replacements from them until the size is restored.
func (p *Population) Advance(ctx context.Context, maxGenerations int) error {
	if _, err := p.Evaluate(ctx); err != nil {
		return err
	}
	round := &p.rounds[len(p.rounds)-1]

	fraction := p.cfg.Cutoff(p.generation, maxGenerations)
	k := EliteCount(fraction, p.size)
	if k == 0 {
		err := errors.NewEmptyPoolError("population", "advance").
			WithContext("cutoff", fraction).
			WithContext("generation", p.generation)
		p.log.Error("Elite pool is empty at generation %d (cutoff %.3f, size %d)", p.generation, fraction, p.size)
		monitoring.RecordError(string(err.Category))
		return err
	}

	sorted := append([]*Chromosome(nil), p.chromosomes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score() > sorted[j].Score()
	})
	elite := sorted[:k]
	for i := k; i < len(sorted); i++ {
		sorted[i] = nil
	}

	next := make([]*Chromosome, 0, p.size)
	next = append(next, elite...)

	children, err := p.breedChildren(elite, p.size-k, round)
	if err != nil {
		return err
	}
	next = append(next, children...)

	p.log.Info("Generation %d: kept %d, bred %d, best %.4f", p.generation, k, len(children), round.BestFitness)
	p.chromosomes = next
	p.generation++
	return nil
}

func (p *Population) breedChildren(elite []*Chromosome, needed int, round *RoundMetrics) ([]*Chromosome, error) {
	children := make([]*Chromosome, 0, needed)
	for len(children) < needed {
		childNum := len(children)
		idA := fmt.Sprintf("%d:%d", p.generation, childNum)
		idB := fmt.Sprintf("%d:%d", p.generation, childNum+1)

		a, b, err := p.breedWithFallback(elite, idA, idB, round)
		if err != nil {
			return nil, err
		}
		children = append(children, a)
		if len(children) < needed {
			children = append(children, b)
		}
	}
	return children, nil
}

// breedWithFallback retries crossover with fresh parents up to BreedAttempts
// times, then clones the last pair of parents unchanged.
func (p *Population) breedWithFallback(elite []*Chromosome, idA, idB string, round *RoundMetrics) (*Chromosome, *Chromosome, error) {
	var pa, pb *Chromosome
	for attempt := 1; attempt <= p.cfg.BreedAttempts; attempt++ {
		var err error
		pa, pb, err = SelectParents(elite, p.rng)
		if err != nil {
			p.log.Error("Parent selection failed: %v", err)
			return nil, nil, err
		}
		pa.NumTimesParent++
		pb.NumTimesParent++

		netA, netB, err := p.breeder.BreedPair(pa.Network, pb.Network, idA, idB, p.rng)
		if err == nil {
			return p.child(netA, pa, pb), p.child(netB, pa, pb), nil
		}
		if !errors.IsCategory(err, errors.ErrorCategorySamplingExhausted) {
			return nil, nil, err
		}

		round.CrossoverFailures++
		if optErr, ok := err.(*errors.OptimizerError); ok {
			p.errStats.RecordError(optErr)
		}
		monitoring.RecordCrossoverFailure("retried")
		p.log.Warning("Crossover failed for %s x %s (attempt %d/%d)", pa.ID, pb.ID, attempt, p.cfg.BreedAttempts)
	}

	round.Fallbacks++
	monitoring.RecordCrossoverFailure("cloned")
	p.log.Warning("Crossover exhausted, cloning %s and %s", pa.ID, pb.ID)
	return p.child(pa.Network.Clone(idA), pa, pb), p.child(pb.Network.Clone(idB), pa, pb), nil
}

func (p *Population) child(net *network.Network, pa, pb *Chromosome) *Chromosome {
	return NewChromosome(newID(p.rng), net, pa.ID, pb.ID, p.generation)
}

// Run advances n generations, recording each round's wall-clock duration, and
// returns the metrics log.
func (p *Population) Run(ctx context.Context, n int) ([]RoundMetrics, error) {
	last := p.generation + n - 1
	p.log.Info("Running population of %d for %d generations", p.size, n)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return p.rounds, err
		}

		start := time.Now()
		if err := p.Advance(ctx, last); err != nil {
			return p.rounds, err
		}
		elapsed := time.Since(start)

		round := &p.rounds[len(p.rounds)-1]
		round.Duration = elapsed
		monitoring.ObserveRoundDuration(p.cfg.Name, elapsed)
		p.log.Info("Generation %d of %d complete in %s", round.Generation, last, elapsed.Round(time.Millisecond))
		if p.onRound != nil {
			p.onRound(*round)
		}
	}

	return p.rounds, nil
}
