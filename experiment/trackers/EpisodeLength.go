// Package trackers implements Trackers, which track and save data in
// an experiment
package trackers

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/modym/experiment/tracker"
	"github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Summary describes a set of episode lengths
type Summary struct {
	Episodes int
	Mean     float64
	Std      float64 // Population standard deviation
	Max      float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%d episodes | mean %.2f ± %.2f | max %v",
		s.Episodes, s.Mean, s.Std, s.Max)
}

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment, measured in environment steps.
// Note that an episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// length will not be saved.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which will save
// its data at the specified location filename. If filename is empty,
// Save does nothing.
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track tracks the episode lengths in an experiment. When this function
// is called, it caches the episode length if the timestep passed to it
// is the last timestep in the episode.
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(t.Number))
	}
}

// Lengths returns the lengths of all finished episodes
func (e *EpisodeLength) Lengths() []float64 {
	lengths := make([]float64, len(e.episodeLengths))
	copy(lengths, e.episodeLengths)
	return lengths
}

// Summary returns the mean, population standard deviation and maximum
// of the tracked episode lengths. All statistics are NaN if no episode
// has finished.
func (e *EpisodeLength) Summary() Summary {
	if len(e.episodeLengths) == 0 {
		return Summary{Mean: math.NaN(), Std: math.NaN(), Max: math.NaN()}
	}

	mean, variance := stat.PopMeanVariance(e.episodeLengths, nil)
	return Summary{
		Episodes: len(e.episodeLengths),
		Mean:     mean,
		Std:      math.Sqrt(variance),
		Max:      floats.Max(e.episodeLengths),
	}
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
// The data can be read back with tracker.LoadData.
func (e *EpisodeLength) Save() error {
	if e.filename == "" {
		return nil
	}
	return tracker.SaveData(e.filename, e.episodeLengths)
}

// Plot saves a line plot of episode length against episode number as
// an image. The image format is determined by the file extension.
func (e *EpisodeLength) Plot(filename, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Steps"

	points := make(plotter.XYs, len(e.episodeLengths))
	for i, length := range e.episodeLengths {
		points[i] = plotter.XY{X: float64(i), Y: length}
	}

	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("plot: could not save plot: %w", err)
	}
	return nil
}
