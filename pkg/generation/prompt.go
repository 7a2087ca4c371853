package generation

import "fmt"

const promptTemplate = `Create a warm, appetizing editorial food photograph to use as the cover image for a shared group meal titled %q.
Style: natural window light, shallow depth of field, rustic table setting, rich but realistic color, inviting and celebratory mood.
Show dishes, ingredients and table details that fit the title's cuisine or occasion.
Ignore any personal names in the title; never depict or reference specific people.
Do not include any text, lettering, logos, labels or watermarks anywhere in the image.`

// BuildPrompt embeds the caller's subject text in the fixed cover-image template.
func BuildPrompt(subject string) string {
	return fmt.Sprintf(promptTemplate, subject)
}
