package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port           string
	BaseUrl        string
	UploadDir      string
	CategoriesFile string
	JWTSecret      string
	EmailDomain    string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
