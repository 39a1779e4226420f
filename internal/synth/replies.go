package synth

const (
	replyImageGeneration = "I can help you generate images! I have AI image generation capabilities that can create artwork, illustrations, photographs, and more based on your descriptions. You can click the image generation button (wand icon) to get started. What kind of image would you like me to create for you?"

	replyImageAnalysis = "I can analyze images for you! I can examine photos, artwork, diagrams, screenshots, and more to provide detailed descriptions, identify objects, analyze composition, and answer questions about what's shown. You can upload an image using the attachment button. What image would you like me to analyze?"

	replyGreeting = "Hello! It's great to meet you. I'm here to help with any questions or tasks you have. Whether you need assistance with coding, writing, analysis, creative projects, image generation, image analysis, or just want to have a conversation, I'm ready to help. What's on your mind today?"

	replyProgramming = "I'd be happy to help with your programming question! I can assist with various programming languages including JavaScript, Python, React, HTML, CSS, and many others. I can help with debugging, code optimization, best practices, architecture decisions, and explaining complex concepts. I can also review code, suggest improvements, and help you learn new technologies. Could you share more details about what specific coding challenge you're working on?"

	replyWriting = "I'm excellent at helping with writing tasks! I can assist with essays, articles, blog posts, creative writing, technical documentation, emails, marketing copy, and more. I can help with brainstorming ideas, structuring content, improving clarity, grammar checking, adapting tone for different audiences, and ensuring your message is compelling and effective. What type of writing project are you working on?"

	replyMath = "I can definitely help with math problems and calculations! I'm capable of handling arithmetic, algebra, calculus, statistics, geometry, trigonometry, and more complex mathematical concepts. I can solve equations step-by-step, explain mathematical concepts clearly, help with word problems, and provide detailed solutions with explanations. What mathematical challenge can I help you with?"

	replyCreative = "I love helping with creative projects! I can assist with brainstorming ideas, creative writing, storytelling, design concepts, marketing campaigns, innovative problem-solving, and artistic projects. I can also generate images to bring your creative visions to life! I can help generate fresh perspectives, think outside the box, and provide inspiration for your projects. What creative project are you working on? I'd love to help spark some inspiration!"

	replyBusiness = "I can provide valuable assistance with business and professional matters! This includes marketing strategies, business planning, professional communication, market analysis, productivity tips, strategic decision-making, and competitive analysis. I can help you think through complex business challenges, provide actionable insights, and develop comprehensive strategies. What specific business area would you like to explore?"

	replyLearning = "I'm here to help you learn and understand new concepts! I can explain complex topics in simple terms, provide step-by-step breakdowns, offer examples and analogies, create visual explanations, and adapt my teaching style to your preferences. I cover a wide range of subjects from science and technology to arts and humanities. I can also create images to help illustrate concepts visually. What would you like to learn about today?"

	replyProblemSolving = "I'm great at helping solve problems and work through challenges! I can help you break down complex issues, analyze different approaches, weigh pros and cons, find creative solutions, and develop step-by-step action plans. Whether it's a technical problem, personal challenge, strategic decision, or creative block, I can provide structured thinking and fresh perspectives. Tell me more about the challenge you're facing."

	replyCapabilities = "I can help with a wide variety of tasks! My capabilities include: writing and editing, coding and programming, math and calculations, analysis and research, creative projects, problem-solving, learning and explanations, business strategy, image analysis, and image generation. I can adapt my communication style to your needs, provide detailed explanations or quick answers, work through complex multi-step problems, and even create visual content. What specific area interests you most?"
)

// Welcome is the assistant message every new conversation starts with.
const Welcome = "Hello! I'm your advanced AI assistant with image capabilities. I can help you with coding, writing, analysis, creative tasks, problem-solving, image analysis, and image generation. What would you like to work on today?"

var contextualReplies = []string{
	"That's an interesting question! Let me provide you with a comprehensive answer. Based on what you've shared, I can offer several insights and approaches that might be helpful for your situation. I can also create visual aids or analyze images if that would be useful for your specific needs.",
	"I understand what you're looking for. This is actually a common topic that many people find valuable to explore. Let me break this down into clear, actionable information that you can use right away. If you need any visual examples or want me to generate illustrations, just let me know!",
	"Great question! This touches on some important concepts that are worth diving into. I'll provide you with both the foundational understanding and practical applications so you can get the most value from this information. I can also help visualize concepts through image generation if that would be helpful.",
	"I can definitely help with that! This is an area where I can provide detailed guidance and specific recommendations. Let me walk you through the key points and give you a clear path forward. If you have any images to analyze or need visual content created, I'm equipped to handle that too.",
	"That's a thoughtful inquiry that deserves a thorough response. I'll share some insights and practical advice that should address your needs and give you a solid foundation to build upon. My capabilities extend to both text-based assistance and visual content creation and analysis.",
	"Excellent topic to explore! I can offer you both theoretical background and practical steps you can take. This is something that can really make a difference when approached systematically. I'm also able to help with any visual elements you might need for your project.",
	"I'm glad you asked about this! It's a subject I can provide substantial help with. Let me give you a comprehensive overview along with specific recommendations tailored to what you're trying to achieve. Feel free to share any images for analysis or request visual content generation as needed.",
}

var analysisReplies = []string{
	"I can see this is an interesting image! Based on my analysis, I notice several key elements including colors, composition, and subject matter. The image appears to have good lighting and visual balance. I can help you understand specific aspects of what's shown - would you like me to focus on any particular details?",
	"This image contains various visual elements that I can analyze for you. I can see patterns in the composition, color scheme, and overall structure. The image quality appears clear and well-composed. What specific aspects would you like me to examine more closely?",
	"I've analyzed the uploaded image and can provide insights about its visual characteristics, composition, and content. The image shows interesting details that I can break down for you. Would you like me to focus on the technical aspects, artistic elements, or specific objects in the image?",
	"Great image! I can see various elements including the overall composition, color palette, and visual structure. The image has good clarity and interesting visual elements. I can provide detailed analysis of specific aspects - what would you like to know more about?",
}
