package threadpool

// Config sizes a Pool.
type Config struct {
	Workers   int `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=64"`
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=1"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
}
