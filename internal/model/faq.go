package model

// FAQ 常见问题
// Question 为触发短语（小写），消息中包含即命中
type FAQ struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}
