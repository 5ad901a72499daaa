package rule

import (
	"fmt"
	"os"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML rule list from file and compiles every rule.
func LoadFromFile(file string, envProvider func() (*cel.Env, error)) ([]Rule, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(content, envProvider)
}

// Parse decodes a YAML rule list and compiles every rule with a fresh environment.
func Parse(content []byte, envProvider func() (*cel.Env, error)) ([]Rule, error) {
	rules := []Rule{}

	err := yaml.Unmarshal(content, &rules)
	if err != nil {
		return nil, err
	}

	for i := range rules {
		if rules[i].Then == "" {
			return nil, fmt.Errorf("rule %d: action must be specified", i)
		}

		env, err := envProvider()
		if err != nil {
			return nil, err
		}

		err = rules[i].Init(env)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return rules, nil
}
