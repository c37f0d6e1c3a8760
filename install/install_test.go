package install

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYarnInstall(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	y := NewYarn(nil)
	y.Program = "true"
	assert.NoError(y.Install(ctx, []string{"@sivrad/matrix-collection-zoo-pkg"}, dir))

	y.Program = "false"
	err := y.Install(ctx, []string{"@sivrad/matrix-collection-zoo-pkg"}, dir)
	assert.Error(err)
	assert.Contains(err.Error(), "false add @sivrad/matrix-collection-zoo-pkg --cwd "+dir)

	y.Program = "matrix-no-such-program"
	assert.Error(y.Install(ctx, []string{"x"}, dir))
}

func TestYarnInstallNothing(t *testing.T) {
	y := &Yarn{Program: "matrix-no-such-program"}
	assert.NoError(t, y.Install(context.Background(), nil, t.TempDir()))
}
