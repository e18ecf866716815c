package seed

// File is the YAML seed file shape: demo notes grouped per username.
type File struct {
	Users []User `yaml:"users"`
}

type User struct {
	Username string     `yaml:"username"`
	Notes    []SeedNote `yaml:"notes"`
}

type SeedNote struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Color   string `yaml:"color"`
}
