package feedback

import "github.com/MikeSquared-Agency/mockview/internal/llm"

// OutputSchema is the shape the model must return. Identifiers, timestamps
// and adequacy statistics are filled in locally and are not part of it.
var OutputSchema = outputSchema()

func outputSchema() *llm.Schema {
	totalMin, totalMax := llm.Range(0, 100)
	scoreMin, scoreMax := llm.Range(0, 10)

	category := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"name":    {Type: llm.TypeString, Enum: Categories},
			"score":   {Type: llm.TypeNumber, Minimum: scoreMin, Maximum: scoreMax},
			"comment": {Type: llm.TypeString},
		},
		Required: []string{"name", "score", "comment"},
	}

	question := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"question": {Type: llm.TypeString},
			"answer":   {Type: llm.TypeString, Description: "the user's answer, or \"" + PlaceholderAnswer + "\""},
			"comment":  {Type: llm.TypeString},
			"score": {
				Type:         llm.TypeNumber,
				Minimum:      scoreMin,
				Maximum:      scoreMax,
				Placeholders: []string{NotApplicable},
				Nullable:     true,
			},
		},
		Required: []string{"question", "answer", "comment", "score"},
	}

	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"totalScore":          {Type: llm.TypeNumber, Minimum: totalMin, Maximum: totalMax},
			"categoryScores":      {Type: llm.TypeArray, Items: category, MinItems: llm.AtLeast(1)},
			"strengths":           {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
			"areasForImprovement": {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
			"finalAssessment":     {Type: llm.TypeString},
			"questions":           {Type: llm.TypeArray, Items: question},
		},
		Required: []string{
			"totalScore", "categoryScores", "strengths",
			"areasForImprovement", "finalAssessment",
		},
	}
}
