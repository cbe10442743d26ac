// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"fmt"
	"strings"
)

// Version names the current template revision.
const Version = "2025.1"

// Interview bounds for the event planner.
const (
	MinQuestions = 4
	MaxQuestions = 10
)

// =============================================================================
// PLAIN CHAT
// =============================================================================

const (
	// ChatWelcomeSystem seeds the one-shot welcome exchange.
	ChatWelcomeSystem = "You are a helpful AI assistant."

	// ChatWelcomeRequest asks the model to greet the user.
	ChatWelcomeRequest = "Say hello and describe very briefly how you can be useful."
)

// =============================================================================
// RECIPE
// =============================================================================

// RecipeSystemInstruction is the system line for recipe lookups.
const RecipeSystemInstruction = "You are a world-class chef. Answer ONLY in JSON format, without any additional text."

// RecipeKeys are the top-level keys the recipe reply must contain.
var RecipeKeys = []string{"name", "country", "ingredients", "instructions", "history"}

// RecipeInstruction asks for the full recipe of dishName as a bare JSON object.
func RecipeInstruction(dishName string) string {
	dish := strings.TrimSpace(dishName)
	return fmt.Sprintf(`You are a world-class chef and culinary expert with many years of experience.

IMPORTANT: your reply MUST be valid JSON ONLY, with no extra text and no Markdown.

Give the full recipe for the dish: "%[1]s"

Return the result STRICTLY in this JSON shape:
{
  "name": "exact name of the dish",
  "country": "country the dish comes from",
  "ingredients": [
    {
      "name": "ingredient name",
      "amount": "quantity",
      "unit": "unit of measure (g, ml, pcs, to taste, ...) or null"
    }
  ],
  "instructions": [
    "Step 1: detailed description",
    "Step 2: detailed description",
    "Step 3: detailed description"
  ],
  "history": "a short history of the dish in 2-3 sentences, its origin and cultural meaning"
}

Field rules:
- name: the exact name of the dish
- country: country of origin (Ukraine, Italy, France, ...)
- ingredients: every ingredient needed, with exact quantities
- instructions: step-by-step cooking instructions, at least 5 steps
- history: an interesting story about the dish, 2-3 sentences

DO NOT add:
- Markdown code fences (`+"```json"+`)
- Any text before or after the JSON object
- Comments inside the JSON

Now give the recipe for the dish: "%[1]s"`, dish)
}

// =============================================================================
// EVENT PLANNER
// =============================================================================

// CompletionAnnouncement is the message the planner sends right before the
// final JSON plan.
const CompletionAnnouncement = "Excellent! I have received all the necessary information. I will now prepare a detailed event plan with recommendations for you."

// EventPlannerOpening is the hidden first user line of the interview.
const EventPlannerOpening = "Hello! I would like to organize a New Year's corporate party for our company."

// EventPlanKeys are the top-level keys the final plan must contain.
var EventPlanKeys = []string{
	"eventName", "guestCount", "budget", "menuPreferences", "drinkPreferences",
	"eventDate", "eventDuration", "specialRequests", "recommendations", "totalEstimate",
}

// InterviewTopics are the subjects the planner must ask about.
var InterviewTopics = []string{
	"Number of guests",
	"Budget per person or in total",
	"Menu preferences (meat, fish, vegetarian)",
	"Drink preferences (alcoholic, non-alcoholic)",
	"Date and time of the event",
	"Duration of the party",
	"Special requests (music, entertainment, decor)",
	"Dietary restrictions or allergies",
}

// EventPlannerInstruction sets up the restaurant-manager interview persona.
func EventPlannerInstruction() string {
	var topics strings.Builder
	for i, t := range InterviewTopics {
		fmt.Fprintf(&topics, "%d. %s\n", i+1, t)
	}

	return fmt.Sprintf(`You are a professional restaurant manager with wide experience organizing corporate events.

YOUR TASK:
1. Introduce yourself and briefly explain how planning works
2. Ask the client %[1]d to %[2]d focused questions about organizing a New Year's corporate party
3. Collect all the information you need
4. FIRST tell the client that all the information has been collected
5. THEN send the final plan as JSON

RULES:
- Ask one question at a time and wait for the answer
- Keep questions specific and professional
- After each answer, thank the client and ask the next question
- When you have everything (%[1]d-%[2]d questions), FIRST announce it, THEN return the JSON

TOPICS YOU MUST COVER:
%[3]s
DIALOGUE FORMAT:
- Start with a greeting: your name, your position, and that you will ask a few questions to organize the party.
- Ask naturally and in a friendly tone.
- Clarify details when needed.
- When the information is complete, write exactly: "%[4]s"
- Return the JSON ONLY AFTER that message.

FINAL JSON (only after the completion message):
{
  "eventName": "New Year's Corporate Party",
  "guestCount": number of guests,
  "budget": "budget, e.g. '50 EUR per person' or '2000 EUR total'",
  "menuPreferences": ["dishes and preferences"],
  "drinkPreferences": ["drinks"],
  "eventDate": "date in DD.MM.YYYY format",
  "eventDuration": "duration, e.g. '4 hours'",
  "specialRequests": ["special requests"],
  "recommendations": ["your professional recommendations based on the answers"],
  "totalEstimate": "approximate total cost"
}

CRITICAL:
- DO NOT return the JSON before you have asked at least %[1]d questions and received the answers.
- ALWAYS announce that collection is complete BEFORE sending the JSON.
- The JSON must have NO Markdown fences.
- The JSON must be the only content of the final message, with nothing after it.
- Nothing may appear between the completion message and the JSON.

TWO-STEP FINALE:
1. Last question, then the answer, then the message: "%[4]s"
2. Next message: the JSON only, with no other text.

When the client writes to you, greet them, explain the process and ask the first question.`,
		MinQuestions, MaxQuestions, topics.String(), CompletionAnnouncement)
}
