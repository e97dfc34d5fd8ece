// Package localstore persists locally-authored reports under a single
// named slot. The slot lives inside a git repository so every submission
// leaves a tamper-evident history entry.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"protestwatch/api/internal/event"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const slotFile = "events.json"

// CommitInfo describes one journal history entry.
type CommitInfo struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}

// Journal is the durable client-side record of user-submitted events.
// It never edits or deletes; Append is the only mutation.
type Journal struct {
	dir string
	mu  sync.Mutex
}

// Open prepares the journal directory, initializing the repository with an
// empty slot on first use.
func Open(dir string) (*Journal, error) {
	j := &Journal{dir: dir}

	if _, err := git.PlainOpen(dir); err == nil {
		return j, nil
	} else if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open journal repo: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("init journal repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, slotFile), []byte("[]\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write empty slot: %w", err)
	}
	if _, err := worktree.Add(slotFile); err != nil {
		return nil, fmt.Errorf("git add empty slot: %w", err)
	}
	hash, err := worktree.Commit("Initialize report journal", &git.CommitOptions{
		Author: signature("protestwatch"),
	})
	if err != nil {
		return nil, fmt.Errorf("commit empty slot: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return nil, fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return nil, fmt.Errorf("set HEAD to main: %w", err)
	}
	return j, nil
}

// ReadAll returns the persisted sequence, most recent report first. Absent
// or corrupt data yields an empty sequence: the reader favors availability
// over surfacing corruption.
func (j *Journal) ReadAll() []event.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readLocked()
}

func (j *Journal) readLocked() []event.Event {
	data, err := os.ReadFile(filepath.Join(j.dir, slotFile))
	if errors.Is(err, os.ErrNotExist) {
		return []event.Event{}
	}
	if err != nil {
		log.Printf("localstore: read slot: %v (treating as empty)", err)
		return []event.Event{}
	}

	var events []event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		log.Printf("localstore: corrupt slot: %v (treating as empty)", err)
		return []event.Event{}
	}
	for i := range events {
		events[i] = event.Normalize(events[i])
	}
	return events
}

// Append adds e to the front of the sequence and persists the whole slot
// before returning. The history commit is best-effort: a commit failure is
// logged, not surfaced, since the slot itself is already durable.
func (j *Journal) Append(e event.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	events := append([]event.Event{event.Normalize(e)}, j.readLocked()...)
	payload, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal slot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(j.dir, slotFile), append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}

	if err := j.commitLocked(e); err != nil {
		log.Printf("localstore: journal commit: %v", err)
	}
	return nil
}

func (j *Journal) commitLocked(e event.Event) error {
	repo, err := git.PlainOpen(j.dir)
	if err != nil {
		return fmt.Errorf("open journal repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if _, err := worktree.Add(slotFile); err != nil {
		return fmt.Errorf("git add slot: %w", err)
	}
	author := e.ReporterName
	if author == "" {
		author = "anonymous"
	}
	message := fmt.Sprintf("Report %d: %s", e.ID, e.Title)
	if _, err := worktree.Commit(message, &git.CommitOptions{Author: signature(author)}); err != nil {
		return fmt.Errorf("commit slot: %w", err)
	}
	return nil
}

// History lists journal commits, newest first. limit <= 0 means all.
func (j *Journal) History(limit int) ([]CommitInfo, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit < 0 {
		limit = 0
	}

	repo, err := git.PlainOpen(j.dir)
	if err != nil {
		return nil, fmt.Errorf("open journal repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve journal head: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read journal log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commit *object.Commit) error {
		items = append(items, CommitInfo{
			Hash:      commit.Hash.String()[:7],
			Message:   commit.Message,
			Author:    commit.Author.Name,
			CreatedAt: commit.Author.When,
		})
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate journal log: %w", err)
	}
	return items, nil
}

func signature(name string) *object.Signature {
	return &object.Signature{
		Name:  name,
		Email: "reports@protestwatch.local",
		When:  time.Now(),
	}
}
