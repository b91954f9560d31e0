package checkpointer

import (
	"fmt"

	ts "github.com/samuelfneumann/modym/timestep"
)

// nEpisode implements checkpointing every N finished episodes
type nEpisode struct {
	interval int
	episodes int
	object   Saveable // Object to save

	// filename returns the name of the file to save the object in.
	//
	// If each checkpoint should be saved in a separate file with each
	// file having an incremented number as a suffix (e.g. policy1.csv,
	// policy2.csv, ..., policyK.csv), then use FilenameEnumerator.
	// To name files by the time they are saved, use FileTimer.
	filename func() string
}

// NewNEpisode returns a checkpointer that saves object at the end of
// every n-th episode
func NewNEpisode(n int, object Saveable,
	filename func() string) Checkpointer {
	if n < 1 {
		panic(fmt.Sprintf("newNEpisode: interval must be positive, got %d",
			n))
	}
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the tracked object if t ends the n-th episode since
// the last checkpoint
func (n *nEpisode) Checkpoint(t ts.TimeStep) error {
	if !t.Last() {
		return nil
	}

	n.episodes++
	if n.episodes%n.interval == 0 {
		if err := n.object.Save(n.filename()); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	return nil
}
