// ABOUTME: Orchestrates one Google <-> Notion run: fetch, index, plan, dispatch
// ABOUTME: Writes fan out to a bounded worker pool; outcomes fold into Stats in one place
package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/contactsync/logging"
)

// Mode selects which passes run.
type Mode int

const (
	ModeFull       Mode = iota // forward then reverse
	ModeGoogleOnly             // forward only
	ModeNotionOnly             // reverse only
)

func (m Mode) String() string {
	switch m {
	case ModeGoogleOnly:
		return "google-only"
	case ModeNotionOnly:
		return "notion-only"
	default:
		return "full"
	}
}

func (m Mode) forward() bool { return m != ModeNotionOnly }
func (m Mode) reverse() bool { return m != ModeGoogleOnly }

// ParseMode turns the CLI flags into a mode.
func ParseMode(googleOnly, notionOnly bool) (Mode, error) {
	switch {
	case googleOnly && notionOnly:
		return ModeFull, fmt.Errorf("cannot use both --google-only and --notion-only")
	case googleOnly:
		return ModeGoogleOnly, nil
	case notionOnly:
		return ModeNotionOnly, nil
	default:
		return ModeFull, nil
	}
}

const (
	DefaultWorkers = 4
	MaxWorkers     = 8
)

// Options tune a Syncer.
type Options struct {
	Mode    Mode
	DryRun  bool
	Workers int
	// Now is the clock used for lastSyncedAt. Defaults to time.Now.
	Now func() time.Time
}

// Syncer runs reconciliation passes between Google and Notion.
type Syncer struct {
	google       PrimaryReader
	googleWriter PrimaryWriter
	notion       SecondaryReader
	notionWriter SecondaryWriter
	opts         Options
}

// NewSyncer wires the four collaborators.
func NewSyncer(google PrimaryReader, googleWriter PrimaryWriter, notion SecondaryReader, notionWriter SecondaryWriter, opts Options) *Syncer {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Workers > MaxWorkers {
		opts.Workers = MaxWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Syncer{
		google:       google,
		googleWriter: googleWriter,
		notion:       notion,
		notionWriter: notionWriter,
		opts:         opts,
	}
}

// Plan is the full set of writes for one run, computed before any is dispatched.
type Plan struct {
	Mode    Mode
	Forward []Instruction
	Reverse []Instruction
	// Outcomes are decided during planning and need no write.
	Outcomes       []Outcome
	PrimaryCount   int
	SecondaryCount int
}

// Instructions returns forward then reverse instructions.
func (p *Plan) Instructions() []Instruction {
	return append(append([]Instruction{}, p.Forward...), p.Reverse...)
}

// Plan fetches both snapshots and plans the run without writing anything.
func (s *Syncer) Plan(ctx context.Context) (*Plan, error) {
	log := logging.FromContext(ctx)

	log.Info().Msg("fetching contacts from google")
	primary, err := s.google.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google snapshot: %w", err)
	}
	log.Info().Int("contacts", len(primary.Contacts)).Int("invalid", len(primary.Invalid)).Msg("fetched google snapshot")

	log.Info().Msg("fetching contacts from notion")
	secondary, err := s.notion.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notion snapshot: %w", err)
	}
	log.Info().Int("contacts", len(secondary.Contacts)).Msg("fetched notion snapshot")

	return BuildPlan(primary, secondary, s.opts.Mode, s.opts.Now()), nil
}

// BuildPlan indexes the Notion snapshot and plans every write. It performs no I/O.
func BuildPlan(primary, secondary Snapshot, mode Mode, now time.Time) *Plan {
	plan := &Plan{
		Mode:           mode,
		PrimaryCount:   len(primary.Contacts),
		SecondaryCount: len(secondary.Contacts),
	}

	for _, invalid := range primary.Invalid {
		plan.Outcomes = append(plan.Outcomes, Outcome{Direction: Forward, Event: EventInvalid, Err: invalid})
	}
	for _, invalid := range secondary.Invalid {
		plan.Outcomes = append(plan.Outcomes, Outcome{Direction: Reverse, Event: EventInvalid, Err: invalid})
	}

	ix := BuildIndex(secondary.Contacts)
	dups := ix.DuplicateProviderIDs()

	// Every Google contact resolving to a duplicated ID fails on its own. The
	// reverse pass reports an ID only when the forward pass did not.
	reported := make(map[string]bool)

	if mode.forward() {
		claimed := make(map[string]string)
		for i := range primary.Contacts {
			contact := primary.Contacts[i]
			m := FindMatch(&contact, ix)

			if m.Found() && !contact.ExcludeFromSync {
				if rows, dup := dups[m.Contact.ProviderID]; dup {
					reported[m.Contact.ProviderID] = true
					plan.Outcomes = append(plan.Outcomes, integrityFailure(Forward, contact.FullName(), m, &IntegrityError{
						Handle:     m.Contact.Handle,
						ProviderID: m.Contact.ProviderID,
						Reason:     fmt.Sprintf("google ID is held by %d notion rows", len(rows)),
					}))
					continue
				}
				if m.Contact.Handle != "" {
					if owner, taken := claimed[m.Contact.Handle]; taken {
						plan.Outcomes = append(plan.Outcomes, integrityFailure(Forward, contact.FullName(), m, &IntegrityError{
							Handle: m.Contact.Handle,
							Reason: fmt.Sprintf("notion row already matched by %q in this run", owner),
						}))
						continue
					}
					claimed[m.Contact.Handle] = contact.FullName()
				}
			}

			in, out := PlanForward(contact, m, now)
			if in.Action == ActionNone {
				plan.Outcomes = append(plan.Outcomes, out)
				continue
			}
			plan.Forward = append(plan.Forward, in)
		}
	}

	if mode.reverse() {
		for _, contact := range secondary.Contacts {
			if rows, dup := dups[contact.ProviderID]; dup && contact.Linked() {
				if !reported[contact.ProviderID] {
					reported[contact.ProviderID] = true
					plan.Outcomes = append(plan.Outcomes, Outcome{
						Direction: Reverse,
						Event:     EventFailed,
						Err: &RecordError{Direction: Reverse, Name: contact.FullName(), Err: &IntegrityError{
							ProviderID: contact.ProviderID,
							Reason:     fmt.Sprintf("google ID is held by %d notion rows", len(rows)),
						}},
					})
				}
				continue
			}

			in, out, ok := PlanReverse(contact)
			if !ok {
				continue
			}
			if in.Action == ActionNone {
				plan.Outcomes = append(plan.Outcomes, out)
				continue
			}
			plan.Reverse = append(plan.Reverse, in)
		}
	}

	return plan
}

func integrityFailure(dir Direction, name string, m Match, err *IntegrityError) Outcome {
	return Outcome{
		Direction: dir,
		Event:     EventFailed,
		Kind:      m.Kind,
		Ambiguous: m.Ambiguous,
		Err:       &RecordError{Direction: dir, Name: name, Err: err},
	}
}

// Run executes one full pass. Only a failure to fetch either snapshot is
// returned as an error; per-record failures land in Stats.Errors. A canceled
// context stops dispatch between records and is returned with the partial stats.
// The returned Stats is never nil.
func (s *Syncer) Run(ctx context.Context) (*Stats, error) {
	log := logging.FromContext(ctx)
	stats := NewStats(s.opts.Mode, s.opts.DryRun)
	stats.StartedAt = s.opts.Now()

	plan, err := s.Plan(ctx)
	if err != nil {
		stats.FinishedAt = s.opts.Now()
		return stats, err
	}
	if s.opts.DryRun {
		dry := PlanStats(plan)
		dry.StartedAt = stats.StartedAt
		dry.FinishedAt = s.opts.Now()
		return dry, nil
	}

	for _, o := range plan.Outcomes {
		stats.Add(o)
	}

	if s.opts.Mode.forward() {
		log.Info().Int("writes", len(plan.Forward)).Msg("syncing google -> notion")
		if err := s.dispatch(ctx, plan.Forward, stats.Add); err != nil {
			stats.FinishedAt = s.opts.Now()
			return stats, err
		}
	}
	if s.opts.Mode.reverse() {
		log.Info().Int("writes", len(plan.Reverse)).Msg("syncing notion -> google")
		if err := s.dispatch(ctx, plan.Reverse, stats.Add); err != nil {
			stats.FinishedAt = s.opts.Now()
			return stats, err
		}
	}

	stats.FinishedAt = s.opts.Now()
	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("excluded", stats.Excluded).
		Int("retracted", stats.Retracted).
		Int("errors", len(stats.Errors)).
		Msg("sync complete")
	return stats, nil
}

// dispatch applies instructions with at most opts.Workers writes in flight.
// Every outcome passes through one collector goroutine, which is the only
// caller of fold.
func (s *Syncer) dispatch(ctx context.Context, instructions []Instruction, fold func(Outcome)) error {
	if len(instructions) == 0 {
		return ctx.Err()
	}
	log := logging.FromContext(ctx)

	results := make(chan Outcome)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		n := 0
		for o := range results {
			fold(o)
			n++
			if n%10 == 0 || n == len(instructions) {
				log.Debug().Int("done", n).Int("total", len(instructions)).Msg("progress")
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, in := range instructions {
		if ctx.Err() != nil {
			// Records never handed to a worker are reported as canceled.
			for _, rest := range instructions[i:] {
				results <- Outcome{Direction: rest.Direction, Kind: rest.Kind, Ambiguous: rest.Ambiguous, Event: EventCanceled}
			}
			break
		}
		g.Go(func() error {
			results <- s.apply(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-collected

	return ctx.Err()
}

// apply performs one write. The context is checked before the write so a
// canceled run stops between records.
func (s *Syncer) apply(ctx context.Context, in Instruction) Outcome {
	out := Outcome{Direction: in.Direction, Kind: in.Kind, Ambiguous: in.Ambiguous}
	if ctx.Err() != nil {
		out.Event = EventCanceled
		return out
	}
	log := logging.FromContext(ctx).With().Str("contact", in.Name).Str("action", in.Action.String()).Logger()

	var err error
	switch in.Action {
	case ActionCreate:
		var handle string
		handle, err = s.notionWriter.Create(ctx, in.Contact)
		if err == nil {
			out.Event = EventCreated
			log.Debug().Str("handle", handle).Msg("created notion row")
		}
	case ActionUpdate:
		err = s.notionWriter.Update(ctx, in.Handle, in.Patch)
		if err == nil {
			out.Event = EventUpdated
			log.Debug().Str("handle", in.Handle).Str("match", in.Kind.String()).Strs("changes", in.Changes).Msg("updated notion row")
		}
	case ActionRetractBirthday:
		var changed bool
		changed, err = s.googleWriter.RetractBirthday(ctx, in.ProviderID)
		if err == nil {
			out.Event = EventRetractUnchanged
			if changed {
				out.Event = EventRetracted
				log.Info().Str("provider_id", in.ProviderID).Msg("removed birthday from google contact")
			}
		}
	default:
		return out
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			out.Event = EventCanceled
			return out
		}
		out.Event = EventFailed
		out.Err = &RecordError{Direction: in.Direction, Name: in.Name, Err: err}
		log.Warn().Err(err).Msg("record failed")
	}
	return out
}

// PlanStats folds a plan into statistics as if every write succeeded.
func PlanStats(plan *Plan) *Stats {
	stats := NewStats(plan.Mode, true)
	for _, o := range plan.Outcomes {
		stats.Add(o)
	}
	for _, in := range plan.Instructions() {
		stats.Add(plannedOutcome(in))
	}
	return stats
}

// plannedOutcome is the outcome a dry run reports for an instruction.
func plannedOutcome(in Instruction) Outcome {
	out := Outcome{Direction: in.Direction, Kind: in.Kind, Ambiguous: in.Ambiguous}
	switch in.Action {
	case ActionCreate:
		out.Event = EventCreated
	case ActionUpdate:
		out.Event = EventUpdated
	case ActionRetractBirthday:
		out.Event = EventRetracted
	}
	return out
}

// SortedMatchKinds returns the kinds present in m, in precedence order.
func SortedMatchKinds(m map[MatchKind]int) []MatchKind {
	kinds := make([]MatchKind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

