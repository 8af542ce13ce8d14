package dotenv

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// EnvVar selects which family of .env files is loaded.
	EnvVar = "FACTFEED_ENV"

	DevEnv  = "dev"
	TestEnv = "test"
	ProdEnv = "prod"
)

// LoadDotEnvs loads the .env files following the convention: https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only need to be called once in main function, other code reads the
// resulting environment through the config package.
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

// CurrentEnv returns the runtime environment name, "dev" when unset.
func CurrentEnv() string {
	env := os.Getenv(EnvVar)
	if env == "" {
		return DevEnv
	}
	return env
}

// IsProdEnv is true when running with FACTFEED_ENV=prod.
func IsProdEnv() bool {
	return CurrentEnv() == ProdEnv
}

func loadDotEnvs(rootPath string) {
	env := CurrentEnv()

	// .env.[runtime_env].local has highest priority, usually contains username and password and other sensitive information
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[runtime_env] usually contains db connection information
	godotenv.Load(rootPath + ".env." + env)
	// .env usually contains shared variables(which might be overwritten by envs above)
	godotenv.Load(rootPath + ".env")
}

// LoadDotEnvsInTests loads .env.test from the repository root regardless of
// which package directory the test binary runs in. godotenv resolves paths
// relative to the working directory, see https://github.com/joho/godotenv/issues/43
func LoadDotEnvsInTests() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	godotenv.Load(filepath.Join(moduleRoot(cwd), ".env.test"))
	return nil
}

// moduleRoot walks up from dir until a go.mod is found.
func moduleRoot(dir string) string {
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(filepath.Join(d, "go.mod")); err == nil {
			return d
		}
		if filepath.Dir(d) == d {
			return dir
		}
	}
}
