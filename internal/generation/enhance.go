package generation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const enhancerSystemInstruction = "You are an artificial intelligence assistant and you need to " +
	"engage in a helpful, detailed, polite conversation with a user."

const enhancerUserInstruction = `You are an AI assistant tasked with processing messages from a Telegram channel and generating Stable Diffusion prompts based on the content. Each message contains a text input. Your job is to analyze the text input and create a prompt that will create an original photo using Stable Diffusion.
You work on architecture project, keep in mind your results will be shown to final customers and architect teams.
Emphasis on lightness of structures.
You will receive a text input:
<text_input>%s</text_input>
Follow these steps to process the input and generate a Stable Diffusion prompt:
1. Interpret the prompt:
   - Identify key words, themes, or concepts mentioned in the legend.
   - Determine the mood, tone, or atmosphere suggested by the text.
2. Generate a Stable Diffusion prompt:
   - Incorporate elements from the legend to guide the modification or enhancement of the image.
   - Use specific, descriptive language to convey the desired style, mood, and visual elements.
   - Include any relevant techniques, or references that align with the legend and original photo.
3. Refine and optimize the prompt:
   - Ensure the prompt is clear, concise, and focused.
   - Use Stable Diffusion-friendly terminology and structure.
   - Balance faithfulness to the original photo with creative interpretation of the legend.
4. Give a title for the work you have done:
   - the title should explain in 5-10 words what will be visible on the image.
   - the title will be used as the caption for the generated image.
   - try to be funny, but don't overthink it: you are a clown that can make serious people laugh!
Provide your output in the following format:
<result><analysis>
[Your analysis of the text_input]
</analysis>
<stable_diffusion_prompt>
[Your generated Stable Diffusion prompt]
</stable_diffusion_prompt>
<title>
[Your generated Title for this work]
</title></result>
Check that the <stable_diffusion_prompt> and <title> tags are available inside the response <result> tag.`

var (
	promptTagRegex = regexp.MustCompile(`(?s)<stable_diffusion_prompt>(.*?)</stable_diffusion_prompt>`)
	titleTagRegex  = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
)

func enhancerInstruction(prompt string) string {
	return fmt.Sprintf(enhancerUserInstruction, prompt)
}

// ParseEnhancement extracts the tagged sections of a completion. A missing
// prompt section falls back to prompt, a missing title to DefaultTitle.
func ParseEnhancement(raw, prompt string) Enhancement {
	out := Enhancement{Prompt: prompt, Title: DefaultTitle}

	var errs []error
	if m := promptTagRegex.FindStringSubmatch(raw); m != nil {
		out.Prompt = strings.TrimSpace(m[1])
	} else {
		errs = append(errs, ErrMissingPromptTag)
	}
	if m := titleTagRegex.FindStringSubmatch(raw); m != nil {
		out.Title = strings.TrimSpace(m[1])
	} else {
		errs = append(errs, ErrMissingTitleTag)
	}

	out.Err = errors.Join(errs...)
	return out
}
