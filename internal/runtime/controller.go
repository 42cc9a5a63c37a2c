// Package runtime implements the client-side consent controller: a
// single-threaded state machine that owns the current consent decision and is
// the only component allowed to turn an inert placeholder into an executing
// script. The browser bindings (DOM, cookies, data layer, fetch) are modeled
// as interfaces so the gating semantics are testable on their own.
package runtime

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"libreconsent/internal/category"
	"libreconsent/internal/scriptgate"
	dErrors "libreconsent/pkg/domain-errors"
)

// State is the controller's position in the consent lifecycle.
type State int

const (
	// StateUnknown means no stored decision exists yet.
	StateUnknown State = iota
	// StateDecided means the user made an explicit choice.
	StateDecided
	// StateRevising means the user reopened the preferences dialog.
	StateRevising
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateDecided:
		return "decided"
	case StateRevising:
		return "revising"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Executor turns an inert tag into a live, executing script element.
type Executor interface {
	Execute(tag *scriptgate.InertTag) error
}

// CookieJar abstracts cookie enumeration and deletion for erasure on
// category revocation.
type CookieJar interface {
	Names() []string
	Erase(name string)
}

// Decision is the user's ephemeral consent snapshot. It lives in the client
// only; the server never stores it beyond the derived audit row.
type Decision struct {
	Accepted  category.Set
	Timestamp time.Time
}

// Config wires the controller's collaborators and page state.
type Config struct {
	// Tags are the inert placeholders present in the rendered page.
	Tags []*scriptgate.InertTag

	Executor  Executor
	Cookies   CookieJar
	Broadcast Broadcaster
	Submitter Submitter
	Logger    *slog.Logger

	// ConsentID is the 64-hex browser consent identity included in audit
	// submissions. See NewConsentID.
	ConsentID string

	// VersionHash tags submissions with the policy/text version in effect.
	VersionHash string

	// ErasePatterns are cookie-name prefixes erased when a category is
	// revoked. Cookies not matching any pattern are never touched.
	ErasePatterns []string
}

// Controller owns consent state for one page load. It is cooperative and
// single-threaded: all methods must be called from the UI event loop. The
// only concurrency inside is the detached audit submission queue.
type Controller struct {
	cfg   Config
	erase *regexp.Regexp

	state    State
	decision Decision
	queue    *submitQueue
}

// NewController builds a controller in StateUnknown.
func NewController(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Controller{
		cfg:   cfg,
		erase: compileErasePattern(cfg.ErasePatterns),
		state: StateUnknown,
	}
	if cfg.Submitter != nil {
		c.queue = newSubmitQueue(cfg.Submitter, cfg.Logger)
	}
	if cfg.Broadcast != nil {
		// Deny-by-default before any decision, so tag managers hold back
		// until the first grant arrives.
		cfg.Broadcast.Push(DefaultVector())
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Decision returns the current consent snapshot.
func (c *Controller) Decision() Decision {
	return c.decision
}

// Restore seeds the controller from a stored decision on revisit: granted
// tags are activated and the vector is re-broadcast, but nothing is
// submitted to the audit endpoint because no new decision was made.
func (c *Controller) Restore(accepted []category.Category, decidedAt time.Time) error {
	if c.state != StateUnknown {
		return dErrors.New(dErrors.CodeConflict, "consent already decided")
	}
	c.decision = Decision{Accepted: category.NewSet(accepted), Timestamp: decidedAt}
	c.state = StateDecided
	c.activateGranted()
	c.broadcast()
	return nil
}

// Decide records the user's first explicit choice. Fires exactly once per
// consent identity: granted tags are activated, the consent-mode vector is
// broadcast, and the decision is submitted with source accept. The broadcast
// and the submission are independent, unordered side effects.
func (c *Controller) Decide(accepted []category.Category) error {
	if c.state != StateUnknown {
		return dErrors.New(dErrors.CodeConflict, "consent already decided")
	}
	c.decision = Decision{Accepted: category.NewSet(accepted), Timestamp: time.Now()}
	c.state = StateDecided
	c.activateGranted()
	c.broadcast()
	c.submit(SourceAccept)
	return nil
}

// Revise reopens preferences. The decision stays in effect until Save.
func (c *Controller) Revise() error {
	if c.state == StateUnknown {
		return dErrors.New(dErrors.CodeConflict, "no decision to revise")
	}
	c.state = StateRevising
	return nil
}

// Save applies a changed category selection: newly granted categories are
// activated (already-activated tags never re-execute), cookies of revoked
// categories are erased by pattern, the vector is re-broadcast, and the
// decision is submitted with source change.
//
// Activation is monotonic within a page load: revoking consent cannot stop a
// script instance that already ran, only prevent future loads and erase its
// cookies.
func (c *Controller) Save(accepted []category.Category) error {
	if c.state == StateUnknown {
		return dErrors.New(dErrors.CodeConflict, "no decision to change")
	}

	previous := c.decision.Accepted
	next := category.NewSet(accepted)
	c.decision = Decision{Accepted: next, Timestamp: time.Now()}
	c.state = StateDecided

	c.activateGranted()

	revoked := false
	for _, cat := range category.Gated {
		if previous.Granted(cat) && !next.Granted(cat) {
			revoked = true
			break
		}
	}
	if revoked {
		c.eraseRevokedCookies()
	}

	c.broadcast()
	c.submit(SourceChange)
	return nil
}

// Close drains the detached submission queue. Call on page teardown in
// tests; a real navigation simply abandons in-flight submissions.
func (c *Controller) Close() {
	if c.queue != nil {
		c.queue.close()
	}
}

// activateGranted executes every not-yet-activated tag whose category is in
// the granted set. The activated flag flips before execution so a tag can
// never run twice, even if the executor fails.
func (c *Controller) activateGranted() {
	if c.cfg.Executor == nil {
		return
	}
	for _, tag := range c.cfg.Tags {
		if tag.Activated || !c.decision.Accepted.Granted(tag.Category) {
			continue
		}
		tag.Activated = true
		if err := c.cfg.Executor.Execute(tag); err != nil {
			c.cfg.Logger.Error("failed to execute gated script",
				"handle", tag.Handle,
				"category", tag.Category,
				"error", err,
			)
		}
	}
}

func (c *Controller) broadcast() {
	if c.cfg.Broadcast != nil {
		c.cfg.Broadcast.Push(VectorFor(c.decision.Accepted))
	}
}

func (c *Controller) submit(source Source) {
	if c.queue == nil {
		return
	}
	c.queue.enqueue(Submission{
		ConsentID:   c.cfg.ConsentID,
		Categories:  category.Names(gatedGranted(c.decision.Accepted)),
		VersionHash: c.cfg.VersionHash,
		Source:      source,
	})
}

func (c *Controller) eraseRevokedCookies() {
	if c.erase == nil || c.cfg.Cookies == nil {
		return
	}
	for _, name := range c.cfg.Cookies.Names() {
		if c.erase.MatchString(name) {
			c.cfg.Cookies.Erase(name)
		}
	}
}

// gatedGranted returns the granted categories excluding necessary, which is
// implicit and never submitted.
func gatedGranted(s category.Set) []category.Category {
	var out []category.Category
	for _, cat := range category.Gated {
		if s.Granted(cat) {
			out = append(out, cat)
		}
	}
	return out
}

// compileErasePattern builds a single anchored alternation from the
// configured cookie-name prefixes. Pattern text is quoted, so operator input
// cannot inject regex syntax.
func compileErasePattern(patterns []string) *regexp.Regexp {
	var quoted []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile("^(" + strings.Join(quoted, "|") + ")")
}
