package llm

// knowledgeEntry maps any of its keywords onto one canned answer.
type knowledgeEntry struct {
	keywords []string
	answer   string
}

// legalKnowledge is matched in order. Broad terms like "contract" sit below the
// entries whose questions commonly mention them.
var legalKnowledge = []knowledgeEntry{
	{
		keywords: []string{"breach of contract", "breach"},
		answer: "A breach of contract occurs when a party fails to perform any term of a contract without a lawful excuse. " +
			"Breaches may be material (going to the root of the agreement and allowing the other party to terminate) or minor " +
			"(entitling the innocent party to damages only). Typical remedies are compensatory damages, specific performance, " +
			"rescission, and restitution. The injured party is generally expected to mitigate its losses.",
	},
	{
		keywords: []string{"non-disclosure", "nda", "confidentiality"},
		answer: "A non-disclosure agreement (NDA) is a contract under which one or both parties agree not to disclose " +
			"specified confidential information. A well drafted NDA defines what counts as confidential, lists exclusions " +
			"(public information, independently developed material), sets the permitted uses, states the duration of the " +
			"obligation, and provides remedies such as injunctions for breach.",
	},
	{
		keywords: []string{"tort", "negligence"},
		answer: "A tort is a civil wrong, other than a breach of contract, that causes harm for which the law provides a remedy. " +
			"Negligence, the most common tort, requires a duty of care owed to the claimant, a breach of that duty, " +
			"causation linking the breach to the harm, and damage that is not too remote.",
	},
	{
		keywords: []string{"liability", "indemnity", "indemnification"},
		answer: "Liability is legal responsibility for an act or omission. Contracts often allocate liability through " +
			"limitation clauses (capping or excluding certain losses) and indemnities (one party promising to cover specified " +
			"losses of the other). Courts read such clauses strictly, and some liabilities, such as for fraud or death caused " +
			"by negligence, generally cannot be excluded.",
	},
	{
		keywords: []string{"intellectual property", "copyright", "trademark", "patent"},
		answer: "Intellectual property covers creations of the mind protected by law. Copyright protects original works of " +
			"authorship automatically on creation; trademarks protect signs that distinguish goods or services; patents " +
			"protect new, inventive, industrially applicable inventions for a limited term after registration; trade secrets " +
			"protect valuable confidential information.",
	},
	{
		keywords: []string{"employment", "employee", "termination", "dismissal"},
		answer: "Employment law governs the relationship between employers and employees. Key issues include the terms of " +
			"the employment contract, minimum wage and working time rules, anti-discrimination protections, notice periods, " +
			"and the grounds and procedure for lawful termination. Wrongful or unfair dismissal claims usually turn on " +
			"whether the employer followed the contract and a fair process.",
	},
	{
		keywords: []string{"lease", "landlord", "tenant", "rent"},
		answer: "A lease grants a tenant the right to occupy property for a period in exchange for rent. Important terms " +
			"include the duration, rent and review mechanism, deposit, repair obligations, permitted use, assignment and " +
			"subletting restrictions, and the conditions under which either party may terminate.",
	},
	{
		keywords: []string{"gdpr", "privacy", "data protection", "personal data"},
		answer: "Data protection law regulates how personal data is collected and used. Under regimes such as the GDPR, " +
			"processing needs a lawful basis, must be transparent and limited to its purpose, and must keep data secure. " +
			"Individuals have rights of access, rectification, erasure, and objection, and breaches may need to be reported " +
			"to the regulator within strict deadlines.",
	},
	{
		keywords: []string{"arbitration", "mediation", "dispute resolution"},
		answer: "Alternative dispute resolution resolves disputes outside court. Mediation uses a neutral third party to " +
			"help the parties reach a voluntary settlement; arbitration submits the dispute to an arbitrator whose award is " +
			"usually binding and enforceable. Many commercial contracts include a clause requiring one of these before litigation.",
	},
	{
		keywords: []string{"statute of limitations", "limitation period"},
		answer: "A limitation period is the deadline for starting legal proceedings. Once it expires a claim is usually " +
			"barred. Periods vary by jurisdiction and claim type, commonly several years for contract and tort claims, and " +
			"may start from the date of breach or from when the claimant discovered the harm.",
	},
	{
		keywords: []string{"force majeure"},
		answer: "A force majeure clause excuses a party from performing when extraordinary events beyond its control, such " +
			"as natural disasters, war, or government action, prevent performance. Whether an event qualifies depends on the " +
			"wording of the clause; parties usually must give notice and try to mitigate the impact.",
	},
	{
		keywords: []string{"power of attorney"},
		answer: "A power of attorney is a document authorising one person (the attorney) to act on behalf of another in " +
			"legal or financial matters. It may be general or limited to specific acts, and a lasting or durable power of " +
			"attorney continues to operate if the grantor loses mental capacity.",
	},
	{
		keywords: []string{"last will", "testament", "inheritance", "probate"},
		answer: "A will sets out how a person's estate should be distributed after death. To be valid it generally must be " +
			"in writing, signed by the testator, and witnessed as the local law requires. Probate is the court process that " +
			"confirms the will and authorises the executor to administer the estate.",
	},
	{
		keywords: []string{"contract", "contracts"},
		answer: "A contract is a legally enforceable agreement between two or more parties. Its essential elements are " +
			"an offer, acceptance of that offer, consideration (something of value exchanged), mutual intention to create " +
			"legal relations, capacity of the parties, and a lawful purpose. Contracts can be written, oral, or implied by " +
			"conduct, although some types (such as transfers of land) must be in writing to be enforceable.",
	},
}

const (
	greetingAnswer = "Hello! I am your legal AI assistant. Ask me about contracts, liability, employment, intellectual " +
		"property, data protection, or a document you have uploaded."
	helpAnswer = "I can explain legal concepts such as contracts, breach of contract, torts, leases, employment, " +
		"intellectual property, data protection, and dispute resolution. Link a document to a chat to ask questions about it."
	genericAnswer = "I do not have a specific answer for that question yet. Try rephrasing it with a legal term such as " +
		"contract, liability, lease, or copyright. For advice on your situation, consult a qualified lawyer."
)

var (
	greetingWords = []string{"hello", "hi", "hey", "greetings", "good morning", "good afternoon"}
	helpWords     = []string{"help", "what can you do", "how does this work"}
)
