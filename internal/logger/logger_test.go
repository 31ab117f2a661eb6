package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	Configure(&buf, "info")
	t.Cleanup(func() { Configure(os.Stderr, "") })

	Debugf("hidden %d", 1)
	Infof("shown %d", 2)

	req.NotContains(buf.String(), "hidden")
	req.Contains(buf.String(), "shown 2")
}

func TestDefaultLevelIsWarn(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	Configure(&buf, "not-a-level")
	t.Cleanup(func() { Configure(os.Stderr, "") })

	Infof("quiet")
	Warnf("loud")

	req.NotContains(buf.String(), "quiet")
	req.Contains(buf.String(), "loud")
}
