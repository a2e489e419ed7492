package errs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeErrorIsMatchesByCode(t *testing.T) {
	err := ErrRequest.WrapMsg("GET /conversations: status 500")
	assert.True(t, errors.Is(err, ErrRequest))
	assert.False(t, errors.Is(err, ErrConnection))
}

func TestCodeErrorDetailAccumulates(t *testing.T) {
	e := ErrConnection.WithDetail("dial tcp refused").WithDetail("attempt 2")
	assert.Contains(t, e.Error(), "dial tcp refused, attempt 2")
	// the shared sentinel must stay clean
	assert.Empty(t, ErrConnection.Detail)
}

func TestCodeOf(t *testing.T) {
	err := ErrParse.WrapErr(errors.New("bad json"))
	require.Error(t, err)
	assert.Equal(t, CodeParse, CodeOf(err))
	assert.Equal(t, 0, CodeOf(errors.New("plain")))
}

func TestWrapErrNil(t *testing.T) {
	assert.NoError(t, ErrRequest.WrapErr(nil))
}
