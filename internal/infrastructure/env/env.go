package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadResult tells the caller which dotenv files were applied.
type LoadResult struct {
	AppEnv string
	Loaded []string
}

// Load reads .env and then .env.<APP_ENV> from dir, the latter overriding
// the former. Variables already set in the process win over .env but not
// over the APP_ENV file, matching how deployments pin overrides.
func Load(dir string) (*LoadResult, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	res := &LoadResult{AppEnv: appEnv}

	base := join(dir, ".env")
	if err := godotenv.Load(base); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", base, err)
		}
	} else {
		res.Loaded = append(res.Loaded, base)
	}

	overlay := join(dir, ".env."+appEnv)
	if err := godotenv.Overload(overlay); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", overlay, err)
		}
	} else {
		res.Loaded = append(res.Loaded, overlay)
	}

	return res, nil
}

func join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return dir + string(os.PathSeparator) + name
}
