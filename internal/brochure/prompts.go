package brochure

import (
	"fmt"
	"strings"

	"sitebrief/internal/llm"
	"sitebrief/internal/webpage"
)

const summarySystemPrompt = "You are an assistant that analyzes the contents of a website " +
	"and provides a detailed summary, ignoring text that might be navigation-related. " +
	"Respond in Markdown format."

const linkSystemPrompt = "You are given a list of links extracted from a company's webpage. " +
	"Your task is to determine which links are most relevant for inclusion in a company brochure.\n\n" +
	"IMPORTANT: Respond with a valid JSON object ONLY. No extra text, no explanations, no code fences.\n\n" +
	"Your response MUST follow this JSON structure:\n" +
	"{\n" +
	"    \"links\": [\n" +
	"        {\"type\": \"about page\", \"url\": \"https://full.url/goes/here/about\"},\n" +
	"        {\"type\": \"careers page\", \"url\": \"https://another.full.url/careers\"}\n" +
	"    ]\n" +
	"}"

const brochureSystemPrompt = "You are an assistant that analyzes the contents of several relevant pages from a company website " +
	"and creates a short brochure about the company for prospective customers, investors, and recruits. " +
	"Respond in Markdown format. Include details of company culture, customers, and careers/jobs if available."

func summaryUserPrompt(page *webpage.Page) string {
	return fmt.Sprintf("You are analyzing a website titled: **%s**\n\n"+
		"### Website Content Overview:\n%s\n\n"+
		"**Task:**\n"+
		"- Summarize the website content in Markdown format.\n"+
		"- If the website contains **news or announcements**, provide a summary of those as well.",
		page.Title, page.Text)
}

func linkUserPrompt(page *webpage.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the list of links found on the website of %s.\n\n", page.URL)
	b.WriteString("**Task:** Identify and return only the relevant links suitable for a company brochure. ")
	b.WriteString("Ensure that the response includes the **full https URL** in JSON format.\n\n")
	b.WriteString("**Do NOT include:**\n- Terms of Service\n- Privacy Policy\n- Email links\n\n")
	b.WriteString("**Links (some might be relative):**\n")
	b.WriteString(strings.Join(page.Links, "\n"))
	return b.String()
}

func brochureUserPrompt(landing *webpage.Page, details string) string {
	return fmt.Sprintf("You are looking at a company called: %s\n"+
		"Here are the contents of its landing page and other relevant pages; "+
		"use this information to build a short brochure of the company in Markdown.\n%s",
		landing.Title, details)
}

// SummaryRequest builds the single-page summary call.
func SummaryRequest(backend llm.Backend, model string, page *webpage.Page) llm.Request {
	return llm.Request{
		Backend: backend,
		Model:   model,
		Messages: []llm.Message{
			llm.SystemMessage(summarySystemPrompt),
			llm.UserMessage(summaryUserPrompt(page)),
		},
	}
}

// LinkRequest builds the structured-output call that picks brochure links
// from the landing page.
func LinkRequest(backend llm.Backend, model string, page *webpage.Page) llm.Request {
	return llm.Request{
		Backend: backend,
		Model:   model,
		Messages: []llm.Message{
			llm.SystemMessage(linkSystemPrompt),
			llm.UserMessage(linkUserPrompt(page)),
		},
		JSONOutput: true,
	}
}

// BrochureRequest builds the final call over the aggregated page contents.
func BrochureRequest(backend llm.Backend, model string, landing *webpage.Page, details string) llm.Request {
	return llm.Request{
		Backend: backend,
		Model:   model,
		Messages: []llm.Message{
			llm.SystemMessage(brochureSystemPrompt),
			llm.UserMessage(brochureUserPrompt(landing, details)),
		},
	}
}
