// Package feed owns the client session's view of one product's review
// list. A single goroutine holds the displayed list and all session
// state; submissions and helpful votes apply their optimistic mutation
// there, run the remote call in the background and post the result back
// as a message. No locks guard the list because only the loop goroutine
// touches it.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/identity"
	"github.com/shopfront/reviews/internal/store"
	"github.com/shopfront/reviews/pkg/validator"
)

// SubmissionState tracks the lifecycle of the current submission attempt.
type SubmissionState int

const (
	SubmissionIdle SubmissionState = iota
	SubmissionValidating
	SubmissionApplied
	SubmissionConfirmed
	SubmissionRolledBack
)

func (s SubmissionState) String() string {
	switch s {
	case SubmissionIdle:
		return "idle"
	case SubmissionValidating:
		return "validating"
	case SubmissionApplied:
		return "optimistically_applied"
	case SubmissionConfirmed:
		return "confirmed"
	case SubmissionRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// VoteState tracks the per-review helpful-vote lock for this session.
type VoteState int

const (
	VoteNone VoteState = iota
	VoteInFlight
	Voted
)

var (
	// ErrSubmissionPending is returned when a second submission starts
	// while the first's remote call is still outstanding.
	ErrSubmissionPending = errors.New("a submission is already pending")

	// ErrAlreadyVoted is returned for a second vote on the same review
	// in this session, or while a vote call is in flight.
	ErrAlreadyVoted = errors.New("already voted on this review")

	// ErrUnknownReview is returned when voting on a review that is not
	// in the displayed list.
	ErrUnknownReview = errors.New("review not in feed")

	// ErrClosed is returned for operations on a closed feed.
	ErrClosed = errors.New("feed is closed")
)

// NotificationKind classifies a user-visible failure notification.
type NotificationKind int

const (
	SubmissionFailed NotificationKind = iota
	VoteFailed
	RefreshFailed
)

// Notification is a user-visible error surfaced by a background
// operation after its optimistic mutation was rolled back.
type Notification struct {
	Kind     NotificationKind
	ReviewID string
	Err      error
}

// Input is the submission form payload. The rating tag doubles as the
// unset check: a zero rating fails "required" before any remote call.
type Input struct {
	Rating   int    `validate:"required,min=1,max=5"`
	Text     string `validate:"required,max=1000"`
	UserName string
}

// --- messages ---

type message interface{ feedMessage() }

type installMsg struct{ reviews []domain.Review }

type submitMsg struct {
	input Input
	reply chan error
}

type submitResultMsg struct {
	tempID string
	err    error
}

type voteMsg struct {
	reviewID string
	reply    chan error
}

type voteResultMsg struct {
	reviewID  string
	prevCount int
	err       error
}

type refreshResultMsg struct {
	reviews []domain.Review
	err     error
}

type snapshotMsg struct{ reply chan snapshot }

type snapshot struct {
	reviews    []domain.Review
	submission SubmissionState
	votes      map[string]VoteState
}

func (installMsg) feedMessage()       {}
func (submitMsg) feedMessage()        {}
func (submitResultMsg) feedMessage()  {}
func (voteMsg) feedMessage()          {}
func (voteResultMsg) feedMessage()    {}
func (refreshResultMsg) feedMessage() {}
func (snapshotMsg) feedMessage()      {}

// Feed coordinates optimistic submissions and helpful votes for one
// product's review list.
type Feed struct {
	productID string
	store     store.ReviewStore
	identity  identity.Provider
	logger    *slog.Logger

	msgs          chan message
	notifications chan Notification

	ctx    context.Context
	cancel context.CancelFunc

	// injectable for deterministic tests
	now   func() time.Time
	newID func() string
}

// New creates a feed and starts its event loop. Call Close to stop it.
func New(productID string, st store.ReviewStore, idp identity.Provider, logger *slog.Logger) *Feed {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Feed{
		productID:     productID,
		store:         st,
		identity:      idp,
		logger:        logger,
		msgs:          make(chan message),
		notifications: make(chan Notification, 16),
		ctx:           ctx,
		cancel:        cancel,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	go f.run()
	return f
}

// Close stops the event loop. In-flight remote calls are abandoned; the
// coordinators never cancel them mid-request.
func (f *Feed) Close() {
	f.cancel()
}

// Notifications returns the channel of user-visible failure
// notifications. The channel is buffered; if the consumer falls behind,
// older notifications are dropped rather than blocking the loop.
func (f *Feed) Notifications() <-chan Notification {
	return f.notifications
}

// Load fetches the authoritative review list and installs it as the
// displayed state.
func (f *Feed) Load(ctx context.Context) error {
	reviews, err := f.store.FetchReviews(ctx, f.productID)
	if err != nil {
		return err
	}
	return f.send(ctx, installMsg{reviews: reviews})
}

// Submit validates the input and, if it passes, prepends a synthesized
// review to the displayed list before the remote append resolves. The
// returned error reports validation failures and the pending-submission
// guard; the outcome of the remote call itself arrives later as a
// Confirmed/RolledBack transition plus a notification on failure.
func (f *Feed) Submit(ctx context.Context, input Input) error {
	reply := make(chan error, 1)
	if err := f.send(ctx, submitMsg{input: input, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-f.ctx.Done():
		return ErrClosed
	}
}

// Vote optimistically bumps the displayed helpful count of a review and
// locks it for the rest of the session. The lock is released only if
// the background call fails, allowing a retry.
func (f *Feed) Vote(ctx context.Context, reviewID string) error {
	reply := make(chan error, 1)
	if err := f.send(ctx, voteMsg{reviewID: reviewID, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-f.ctx.Done():
		return ErrClosed
	}
}

// Reviews returns a copy of the currently displayed list.
func (f *Feed) Reviews(ctx context.Context) []domain.Review {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return nil
	}
	return snap.reviews
}

// Summary returns the aggregate statistics of the displayed list,
// optimistic entries included.
func (f *Feed) Summary(ctx context.Context) domain.Summary {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return domain.Summarize(nil)
	}
	return domain.Summarize(snap.reviews)
}

// SubmissionState returns the state of the current submission attempt.
func (f *Feed) SubmissionState(ctx context.Context) SubmissionState {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return SubmissionIdle
	}
	return snap.submission
}

// VoteState returns this session's vote state for one review.
func (f *Feed) VoteState(ctx context.Context, reviewID string) VoteState {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return VoteNone
	}
	return snap.votes[reviewID]
}

func (f *Feed) send(ctx context.Context, msg message) error {
	select {
	case f.msgs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-f.ctx.Done():
		return ErrClosed
	}
}

func (f *Feed) snapshot(ctx context.Context) (snapshot, error) {
	reply := make(chan snapshot, 1)
	if err := f.send(ctx, snapshotMsg{reply: reply}); err != nil {
		return snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return snapshot{}, ctx.Err()
	case <-f.ctx.Done():
		return snapshot{}, ErrClosed
	}
}

func (f *Feed) notify(n Notification) {
	select {
	case f.notifications <- n:
	default:
		// Drop the oldest pending notification to make room.
		select {
		case <-f.notifications:
		default:
		}
		select {
		case f.notifications <- n:
		default:
		}
	}
}

// run is the event loop. All mutation of the displayed list and the
// session state happens here.
func (f *Feed) run() {
	var (
		reviews       []domain.Review
		submission    = SubmissionIdle
		pendingSubmit bool
		votes         = make(map[string]VoteState)
	)

	for {
		select {
		case <-f.ctx.Done():
			return
		case msg := <-f.msgs:
			switch m := msg.(type) {
			case installMsg:
				reviews = m.reviews

			case snapshotMsg:
				snap := snapshot{
					reviews:    append([]domain.Review(nil), reviews...),
					submission: submission,
					votes:      make(map[string]VoteState, len(votes)),
				}
				for k, v := range votes {
					snap.votes[k] = v
				}
				m.reply <- snap

			case submitMsg:
				if pendingSubmit {
					m.reply <- ErrSubmissionPending
					continue
				}

				submission = SubmissionValidating
				if err := f.validateInput(m.input); err != nil {
					submission = SubmissionIdle
					m.reply <- err
					continue
				}

				optimistic := f.synthesize(m.input)
				reviews = append([]domain.Review{optimistic}, reviews...)
				pendingSubmit = true
				submission = SubmissionApplied
				m.reply <- nil

				go f.runAppend(optimistic)

			case submitResultMsg:
				pendingSubmit = false
				if m.err != nil {
					reviews = removeReview(reviews, m.tempID)
					submission = SubmissionRolledBack
					f.notify(Notification{Kind: SubmissionFailed, Err: m.err})
					f.logger.Warn("submission rolled back",
						slog.String("product_id", f.productID),
						slog.String("error", m.err.Error()),
					)
					continue
				}
				submission = SubmissionConfirmed
				go f.runRefresh()

			case voteMsg:
				if votes[m.reviewID] != VoteNone {
					m.reply <- ErrAlreadyVoted
					continue
				}
				idx := indexOf(reviews, m.reviewID)
				if idx < 0 {
					m.reply <- ErrUnknownReview
					continue
				}

				prev := reviews[idx].HelpfulCount
				reviews[idx].HelpfulCount++
				votes[m.reviewID] = VoteInFlight
				m.reply <- nil

				go f.runVote(m.reviewID, prev)

			case voteResultMsg:
				if m.err != nil {
					if idx := indexOf(reviews, m.reviewID); idx >= 0 {
						reviews[idx].HelpfulCount = m.prevCount
					}
					delete(votes, m.reviewID)
					f.notify(Notification{Kind: VoteFailed, ReviewID: m.reviewID, Err: m.err})
					f.logger.Warn("helpful vote rolled back",
						slog.String("review_id", m.reviewID),
						slog.String("error", m.err.Error()),
					)
					continue
				}
				votes[m.reviewID] = Voted
				go f.runRefresh()

			case refreshResultMsg:
				if m.err != nil {
					f.notify(Notification{Kind: RefreshFailed, Err: m.err})
					continue
				}
				reviews = m.reviews
			}
		}
	}
}

// validateInput applies the local form rules. Anonymous sessions must
// type a name; authenticated ones may leave it blank.
func (f *Feed) validateInput(input Input) error {
	if f.identity.Current(f.ctx) == nil && input.UserName == "" {
		return errors.New("name is required")
	}
	return validator.Validate(input)
}

// synthesize builds the full optimistic review record with a temporary
// id, the way the confirmed record will look if the append succeeds.
func (f *Feed) synthesize(input Input) domain.Review {
	userName := input.UserName
	userID := ""
	if ident := f.identity.Current(f.ctx); ident != nil {
		userID = ident.ID
		if userName == "" {
			userName = ident.Name
		}
	}
	return domain.Review{
		ID:           "temp-" + f.newID(),
		ProductID:    f.productID,
		Rating:       input.Rating,
		Text:         input.Text,
		UserName:     userName,
		UserID:       userID,
		HelpfulCount: 0,
		CreatedAt:    f.now().UTC().Format(domain.CreatedAtLayout),
	}
}

func (f *Feed) runAppend(optimistic domain.Review) {
	_, err := f.store.AppendReview(f.ctx, f.productID, domain.NewReview{
		Rating:   optimistic.Rating,
		Text:     optimistic.Text,
		UserName: optimistic.UserName,
		UserID:   optimistic.UserID,
	})
	f.post(submitResultMsg{tempID: optimistic.ID, err: err})
}

// runVote carries the pre-vote count with it so the rollback does not
// depend on loop state that a refresh may have replaced in the interim.
func (f *Feed) runVote(reviewID string, prev int) {
	err := f.store.IncrementHelpful(f.ctx, f.productID, reviewID)
	f.post(voteResultMsg{reviewID: reviewID, prevCount: prev, err: err})
}

func (f *Feed) runRefresh() {
	reviews, err := f.store.FetchReviews(f.ctx, f.productID)
	f.post(refreshResultMsg{reviews: reviews, err: err})
}

func (f *Feed) post(msg message) {
	select {
	case f.msgs <- msg:
	case <-f.ctx.Done():
	}
}

func indexOf(reviews []domain.Review, id string) int {
	for i := range reviews {
		if reviews[i].ID == id {
			return i
		}
	}
	return -1
}

func removeReview(reviews []domain.Review, id string) []domain.Review {
	idx := indexOf(reviews, id)
	if idx < 0 {
		return reviews
	}
	return append(reviews[:idx:idx], reviews[idx+1:]...)
}
