package openaillm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Morris88826/YouClipAI/internal/types"
)

func framePrompt(query string) string {
	return "Analyze the query and extract the relevant information according to the 4W1H framework (Who, What, When, Where, How).\n" +
		"Query: " + query + "\n" +
		"You MUST provide a response for each category in the following format, even if it is blank.\n" +
		"Respond in this JSON format:\n" +
		"{\n" +
		"  \"Who\": \"...\",\n" +
		"  \"What\": \"...\",\n" +
		"  \"When\": \"...\",\n" +
		"  \"Where\": \"...\",\n" +
		"  \"How\": \"...\"\n" +
		"}"
}

func searchStringPrompt(frame types.QueryFrame) string {
	return fmt.Sprintf(
		"Generate a short video search query (under 10 words) from this 4W1H breakdown of a user request. "+
			"Return only the search query text, nothing else.\n"+
			"Who: %s\nWhat: %s\nWhen: %s\nWhere: %s\nHow: %s",
		frame.Who, frame.What, frame.When, frame.Where, frame.How,
	)
}

func windowPrompt(words []types.Word, target string) string {
	return "You are an AI assistant specialized in extracting relevant sections from transcripts based on the 'What' information provided in the context of a 4W1H framework (Who, What, When, Where, Why, and How). \n" +
		"Instructions:" +
		"1. Identify and extract the section that CONTAINS information related to the 'What' provided.\n" +
		"2. If no relevant section is found, return '" + noMatch + "' for all fields.\n" +
		"3. You MUST ensure that the extracted content is the LONGEST continuous section that covers the 'What' information.\n" +
		"Transcript [(word, start_time, end_time), ...]: " + formatWindow(words) + "\n" +
		"What (Information to extract): " + target + "\n" +
		"You MUST return in the following format:\n" +
		"{\n" +
		"  \"content\": \"The relevant section from the transcript or '" + noMatch + "' if no match.\",\n" +
		"  \"info\": \"Explanation or context of the relevant section or '" + noMatch + "' if no match.\",\n" +
		"  \"start_time\": \"The start time of the relevant section or '" + noMatch + "' if no match.\",\n" +
		"  \"end_time\": \"The end time of the relevant section or '" + noMatch + "' if no match.\"\n" +
		"}"
}

func rankingPrompt(candidatesJSON, query string) string {
	return "You are an AI assistant tasked with analyzing, merging, and ranking search results based on their relevance to a given query.\n\n" +
		"Instructions:\n" +
		"1. Identify overlapping or closely related sections:\n" +
		"   - Two sections are considered overlapping if their time ranges intersect or if the end time of one section is within 5 seconds of the start time of another.\n" +
		"   - Two sections are considered closely related if their content discusses the same topic or has thematic similarity to the query.\n" +
		"   - Merge sections only if they meet both criteria: overlapping time ranges and thematic similarity.\n" +
		"2. Rank the merged sections based on their relevance to the query:\n" +
		"   - Prioritize sections that directly address the query.\n" +
		"   - Rank higher sections that are more specific, unique, and detailed in their relevance to the query.\n" +
		"3. The MOST relevant section should be at the start of the list.\n" +
		"Search Results: " + candidatesJSON + "\n" +
		"Query: " + query + "\n\n" +
		"You MUST return the ranked results in the following format:\n" +
		"{\n" +
		"  \"ranked_results\": [\n" +
		"    {\n" +
		"      \"start_time\": \"Earliest start time of the merged section, MUST be in float\",\n" +
		"      \"end_time\": \"Latest end time of the merged section, MUST be in float\"\n" +
		"    }\n" +
		"  ]\n" +
		"}"
}

func filterHitsPrompt(hitsJSON, query string) string {
	return "You are an AI assistant tasked with analyzing which video might contain the user's query information based on the title\n\n" +
		"Search Results: " + hitsJSON + "\n" +
		"Query: " + query + "\n\n" +
		"You MUST return the ranked results in the following format:\n" +
		"{\n" +
		"  \"ranked_results\": [\n" +
		"    {\n" +
		"      \"video_id\": \"...\",\n" +
		"      \"video_title\": \"...\"\n" +
		"    }\n" +
		"  ]\n" +
		"}"
}

// formatWindow renders the filtered rows as (word,start,end) tuples, the
// transcript shape the extraction prompt documents.
func formatWindow(words []types.Word) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteByte('(')
		b.WriteString(w.Word)
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(w.Start, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(w.End, 'f', -1, 64))
		b.WriteByte(')')
	}
	return b.String()
}
