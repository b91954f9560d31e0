package qlearning

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/samuelfneumann/modym/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrPolicyShape is returned when a stored policy does not have
	// the number of states or actions expected
	ErrPolicyShape = errors.New("policy shape mismatch")

	// ErrPolicyParse is returned when a stored policy is malformed
	ErrPolicyParse = errors.New("malformed policy")
)

// QTable holds one action value per state and action. Rows are states
// and columns are actions.
type QTable struct {
	values *mat.Dense
}

// NewQTable returns a new zero-initialized QTable
func NewQTable(states, actions int) *QTable {
	if states < 1 || actions < 1 {
		panic(fmt.Sprintf("newQTable: states and actions must be positive, "+
			"got %d states and %d actions", states, actions))
	}
	return &QTable{mat.NewDense(states, actions, nil)}
}

// Dims returns the number of states and actions of the table
func (q *QTable) Dims() (states, actions int) {
	return q.values.Dims()
}

// At returns the value of action a in state s
func (q *QTable) At(s, a int) float64 {
	return q.values.At(s, a)
}

// Set sets the value of action a in state s
func (q *QTable) Set(s, a int, v float64) {
	q.values.Set(s, a, v)
}

// Row returns a view of the action values of state s
func (q *QTable) Row(s int) mat.Vector {
	return q.values.RowView(s)
}

// Greedy returns the action with the largest value in state s. Ties are
// broken in favour of the lowest action.
func (q *QTable) Greedy(s int) int {
	return matutils.MaxVec(q.Row(s))
}

// Max returns the largest action value in state s
func (q *QTable) Max(s int) float64 {
	return mat.Max(q.Row(s))
}

// Clone returns a deep copy of the table
func (q *QTable) Clone() *QTable {
	return &QTable{mat.DenseCopyOf(q.values)}
}

// Equal returns whether two tables hold exactly the same values
func (q *QTable) Equal(other *QTable) bool {
	return mat.Equal(q.values, other.values)
}

// Write writes the table as CSV. The header row holds the action ids
// and each following row the action values of one state, in state
// order.
func (q *QTable) Write(w io.Writer) error {
	states, actions := q.Dims()
	writer := csv.NewWriter(w)

	header := make([]string, actions)
	for a := range header {
		header[a] = strconv.Itoa(a)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	record := make([]string, actions)
	for s := 0; s < states; s++ {
		for a := range record {
			record[a] = strconv.FormatFloat(q.At(s, a), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Save writes the table as CSV to the file at path
func (q *QTable) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create policy file: %w", err)
	}

	if err := q.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("save: %w", err)
	}
	return f.Close()
}

// Read reads a table with the given number of states and actions from
// CSV written by Write
func Read(r io.Reader, states, actions int) (*QTable, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read: %w: empty policy", ErrPolicyParse)
	} else if err != nil {
		return nil, fmt.Errorf("read: %w: %v", ErrPolicyParse, err)
	}
	if len(header) != actions {
		return nil, fmt.Errorf("read: %w: policy has %d actions, want %d",
			ErrPolicyShape, len(header), actions)
	}

	table := NewQTable(states, actions)
	s := 0
	for ; ; s++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("read: %w: %v", ErrPolicyParse, err)
		}

		if s >= states {
			return nil, fmt.Errorf("read: %w: policy has more than %d states",
				ErrPolicyShape, states)
		}

		for a, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("read: %w: state %d, action %d: %v",
					ErrPolicyParse, s, a, err)
			}
			table.Set(s, a, v)
		}
	}

	if s != states {
		return nil, fmt.Errorf("read: %w: policy has %d states, want %d",
			ErrPolicyShape, s, states)
	}
	return table, nil
}

// Load reads a table with the given number of states and actions from
// the CSV file at path
func Load(path string, states, actions int) (*QTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open policy file: %w", err)
	}
	defer f.Close()

	table, err := Read(f, states, actions)
	if err != nil {
		return nil, fmt.Errorf("load: %v: %w", path, err)
	}
	return table, nil
}
